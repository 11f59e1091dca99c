package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/llm"
	"github.com/echo-recall/backend/pkg/logger"
)

// Client adapts any OpenAI-compatible chat endpoint as a provider. The
// credential arrives per call, so the underlying SDK client is built on
// demand.
type Client struct {
	model       string
	baseURL     string
	temperature float32
	maxTokens   int
}

func NewClient(model, baseURL string, temperature float32, maxTokens int) *Client {
	return &Client{
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (c *Client) Complete(ctx context.Context, cred llm.Credential, system, user string) (string, error) {
	if cred.Empty() {
		return "", llm.ErrNoCredential
	}

	cfg := openai.DefaultConfig(cred.Value)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			logger.Warn("openai API error",
				zap.Int("status", apiErr.HTTPStatusCode),
				zap.String("model", c.model),
			)
			return "", llm.NewAPIError(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}
