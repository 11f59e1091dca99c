package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/recall"
	"github.com/echo-recall/backend/pkg/logger"
)

// Credential authorizes a provider call: either a vendor API key or an OAuth
// bearer token, depending on deployment variant.
type Credential struct {
	Value  string
	Bearer bool
}

func (c Credential) Empty() bool {
	return c.Value == ""
}

// Completer is one provider's raw completion call. Implementations map their
// HTTP failures onto the taxonomy in errors.go and perform no retries.
type Completer interface {
	Complete(ctx context.Context, cred Credential, system, user string) (string, error)
}

// Gateway exposes the three learning operations on top of a Completer and
// owns prompt construction and reply parsing.
type Gateway struct {
	completer Completer
}

func NewGateway(c Completer) *Gateway {
	return &Gateway{completer: c}
}

func (g *Gateway) AnalyzeContent(ctx context.Context, cred Credential, text string) (*recall.ContentAnalysis, error) {
	raw, err := g.completer.Complete(ctx, cred, analyzeSystemPrompt, analyzeUserPrompt(text))
	if err != nil {
		return nil, err
	}

	var analysis recall.ContentAnalysis
	if err := decodeReply(raw, &analysis); err != nil {
		return nil, err
	}

	logger.Debug("content analyzed",
		zap.Int("key_concepts", len(analysis.KeyConcepts)),
		zap.Int("main_ideas", len(analysis.MainIdeas)),
	)

	return &analysis, nil
}

func (g *Gateway) CompareRecall(ctx context.Context, cred Credential, originalText, userRecall string, analysis *recall.ContentAnalysis) (*recall.RecallFeedback, error) {
	raw, err := g.completer.Complete(ctx, cred, "", comparePrompt(originalText, userRecall, analysis))
	if err != nil {
		return nil, err
	}

	var feedback recall.RecallFeedback
	if err := decodeReply(raw, &feedback); err != nil {
		return nil, err
	}
	feedback.Normalize()

	logger.Debug("recall compared",
		zap.Int("score", feedback.Score),
		zap.String("level", string(feedback.Level)),
	)

	return &feedback, nil
}

func (g *Gateway) AnswerDeepDive(ctx context.Context, cred Credential, question, userAnswer, contextText string) (string, error) {
	raw, err := g.completer.Complete(ctx, cred, "", deepDivePrompt(question, userAnswer, contextText))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// ValidateCredential makes a minimal round-trip to check that the credential
// is accepted by the provider.
func (g *Gateway) ValidateCredential(ctx context.Context, cred Credential) bool {
	_, err := g.completer.Complete(ctx, cred,
		`Just respond with "OK" to verify the credential is working.`, "Hi")
	return err == nil
}

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// decodeReply strips an optional markdown code fence and decodes the JSON
// body. A reply that does not decode is a parse failure, never an HTTP one.
func decodeReply(raw string, v interface{}) error {
	body := raw
	if m := codeFence.FindStringSubmatch(raw); m != nil {
		body = m[1]
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), v); err != nil {
		logger.Warn("provider reply was not valid JSON", zap.Int("reply_length", len(raw)))
		return fmt.Errorf("%w: %v", ErrResponseParse, err)
	}
	return nil
}
