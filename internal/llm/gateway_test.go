package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echo-recall/backend/internal/recall"
)

const analysisJSON = `{
	"keyConcepts": [
		{"name": "spaced repetition", "description": "reviewing at increasing intervals", "importance": "high"}
	],
	"mainIdeas": ["testing yourself beats rereading"],
	"summary": "Active recall strengthens memory."
}`

func TestAnalyzeContentParsesPlainJSON(t *testing.T) {
	mock := NewMockCompleter(analysisJSON)
	g := NewGateway(mock)

	analysis, err := g.AnalyzeContent(context.Background(), Credential{Value: "key"}, "some text")
	require.NoError(t, err)

	require.Len(t, analysis.KeyConcepts, 1)
	assert.Equal(t, "spaced repetition", analysis.KeyConcepts[0].Name)
	assert.Equal(t, "Active recall strengthens memory.", analysis.Summary)
}

func TestAnalyzeContentStripsCodeFence(t *testing.T) {
	for _, fenced := range []string{
		"```json\n" + analysisJSON + "\n```",
		"```\n" + analysisJSON + "\n```",
	} {
		mock := NewMockCompleter(fenced)
		g := NewGateway(mock)

		analysis, err := g.AnalyzeContent(context.Background(), Credential{Value: "key"}, "text")
		require.NoError(t, err)
		assert.Len(t, analysis.KeyConcepts, 1)
	}
}

func TestAnalyzeContentParseFailureIsDistinctError(t *testing.T) {
	mock := NewMockCompleter("I'm sorry, I can't produce JSON today.")
	g := NewGateway(mock)

	_, err := g.AnalyzeContent(context.Background(), Credential{Value: "key"}, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseParse)
	assert.NotErrorIs(t, err, ErrServerError)
}

func TestCompareRecallNormalizesFeedback(t *testing.T) {
	mock := NewMockCompleter(`{"score": 82, "level": "excellent", "summary": "solid"}`)
	g := NewGateway(mock)

	feedback, err := g.CompareRecall(context.Background(), Credential{Value: "key"}, "original", "recall", &analysisFixture)
	require.NoError(t, err)

	assert.Equal(t, 82, feedback.Score)
	// The level always follows the score bands, whatever the provider said.
	assert.Equal(t, "good", string(feedback.Level))
}

func TestCompareRecallPropagatesCompleterError(t *testing.T) {
	mock := NewMockCompleter()
	mock.Err = NewAPIError(429, "slow down")
	g := NewGateway(mock)

	_, err := g.CompareRecall(context.Background(), Credential{Value: "key"}, "original", "recall", &analysisFixture)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestAnswerDeepDiveReturnsTrimmedText(t *testing.T) {
	mock := NewMockCompleter("  Good answer, though the second point needs work.  \n")
	g := NewGateway(mock)

	reply, err := g.AnswerDeepDive(context.Background(), Credential{Value: "key"}, "why?", "because", "context")
	require.NoError(t, err)
	assert.Equal(t, "Good answer, though the second point needs work.", reply)
}

func TestPromptsTruncateInputs(t *testing.T) {
	long := strings.Repeat("x", 10000)

	user := analyzeUserPrompt(long)
	assert.LessOrEqual(t, len(user), analyzeMaxChars+100)

	compare := comparePrompt(long, "recall", &analysisFixture)
	assert.Contains(t, compare, "...(truncated)")

	deep := deepDivePrompt("q", "a", long)
	assert.NotContains(t, deep, strings.Repeat("x", deepDiveContextMaxChars+1))
}

func TestAPIErrorKinds(t *testing.T) {
	assert.ErrorIs(t, NewAPIError(401, ""), ErrUnauthorized)
	assert.ErrorIs(t, NewAPIError(403, ""), ErrUnauthorized)
	assert.ErrorIs(t, NewAPIError(429, ""), ErrRateLimited)
	assert.ErrorIs(t, NewAPIError(500, ""), ErrServerError)
	assert.ErrorIs(t, NewAPIError(503, ""), ErrServerError)

	var kinds []error
	for _, status := range []int{401, 429, 500} {
		kinds = append(kinds, NewAPIError(status, ""))
	}
	for i, err := range kinds {
		for j, other := range []error{ErrUnauthorized, ErrRateLimited, ErrServerError} {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(err, other))
		}
	}
}

var analysisFixture = recall.ContentAnalysis{
	KeyConcepts: []recall.KeyConcept{
		{Name: "active recall", Description: "retrieval practice", Importance: recall.ImportanceHigh},
	},
	MainIdeas: []string{"testing yourself beats rereading"},
	Summary:   "Active recall strengthens memory.",
}
