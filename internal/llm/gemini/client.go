package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/llm"
	"github.com/echo-recall/backend/pkg/logger"
)

const (
	apiBase         = "https://generativelanguage.googleapis.com/v1beta/models"
	temperature     = 0.7
	maxOutputTokens = 4096
)

// Client calls the Gemini generateContent API. The credential is either an
// API key (query parameter) or a Google OAuth bearer token, depending on how
// the user authenticated.
type Client struct {
	httpClient *http.Client
	model      string
}

func NewClient(model string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		model:      model,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type request struct {
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
}

type response struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Complete(ctx context.Context, cred llm.Credential, system, user string) (string, error) {
	if cred.Empty() {
		return "", llm.ErrNoCredential
	}

	reqBody := request{
		Contents: []content{{Parts: []part{{Text: user}}}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}
	if system != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent", apiBase, c.model)
	if !cred.Bearer {
		endpoint += "?key=" + url.QueryEscape(cred.Value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cred.Bearer {
		req.Header.Set("Authorization", "Bearer "+cred.Value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(respBody)
		var parsed errorResponse
		if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Error.Message != "" {
			detail = parsed.Error.Message
		}

		logger.Warn("gemini API error",
			zap.Int("status", resp.StatusCode),
			zap.String("model", c.model),
		)

		// Gemini reports an invalid API key as 400.
		if resp.StatusCode == 400 {
			return "", llm.NewAPIErrorKind(resp.StatusCode, detail, llm.ErrUnauthorized)
		}
		return "", llm.NewAPIError(resp.StatusCode, detail)
	}

	var parsed response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrResponseParse, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
