package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/echo-recall/backend/internal/recall"
)

const (
	analyzeMaxChars         = 8000
	compareOriginalMaxChars = 3000
	deepDiveContextMaxChars = 2000
)

const analyzeSystemPrompt = `You are an expert at analyzing learning content. Analyze the given web page text and extract its key concepts and main ideas.

Return JSON in this shape:
{
  "keyConcepts": [
    {
      "name": "concept name",
      "description": "short description of the concept",
      "importance": "high" | "medium" | "low"
    }
  ],
  "mainIdeas": ["main idea 1", "main idea 2", ...],
  "summary": "a 2-3 sentence summary of the whole text"
}

Rules:
- Extract at most 10 keyConcepts
- importance reflects how central the concept is to this text
- mainIdeas should be 5-7 key points
- summary must be concise but capture the overall context

Return ONLY the JSON. No additional explanation.`

func analyzeUserPrompt(text string) string {
	return fmt.Sprintf("Analyze the following text:\n\n%s", truncate(text, analyzeMaxChars))
}

func comparePrompt(originalText, userRecall string, analysis *recall.ContentAnalysis) string {
	original := originalText
	if len(original) > compareOriginalMaxChars {
		original = original[:compareOriginalMaxChars] + "...(truncated)"
	}

	conceptsJSON, _ := json.MarshalIndent(analysis.KeyConcepts, "", "  ")

	return fmt.Sprintf(`You are an education expert giving feedback on recall practice. The user read a web page and wrote down what they remember. Compare it against the original text and provide feedback.

## Original text
%s

## Key concept analysis
%s

## Main ideas
- %s

## What the user wrote
%s

---

Return JSON in this shape:
{
  "score": a number between 0 and 100,
  "level": "excellent" | "good" | "fair" | "needs_work",
  "summary": "overall feedback summary (2-3 sentences)",
  "correctConcepts": [
    {
      "concept": "a concept the user remembered accurately",
      "explanation": "praise plus why it matters"
    }
  ],
  "missedConcepts": [
    {
      "concept": "an important concept the user missed",
      "explanation": "why this concept matters",
      "hint": "a hint to jog the memory"
    }
  ],
  "incorrectConcepts": [
    {
      "concept": "something the user remembered inaccurately",
      "explanation": "how it differs from the correct content"
    }
  ],
  "deepDiveQuestions": [
    {
      "question": "a question worth thinking about more deeply",
      "relatedConcept": "the related key concept"
    }
  ]
}

Scoring bands:
- excellent (90-100): remembered most key concepts accurately
- good (70-89): remembered the main concepts but missed some
- fair (50-69): understood the basics but lacks detail
- needs_work (0-49): missed or misunderstood most key concepts

Feedback rules:
- Keep a positive, encouraging tone
- Explain with concrete examples
- Provide only 2-3 deepDiveQuestions
- Anything the user did not write goes into missedConcepts

Return ONLY the JSON. No additional explanation.`,
		original,
		string(conceptsJSON),
		strings.Join(analysis.MainIdeas, "\n- "),
		userRecall,
	)
}

func deepDivePrompt(question, userAnswer, contextText string) string {
	return fmt.Sprintf(`You are a tutor helping someone learn. Evaluate the user's answer to a deep-dive question.

## Original content (context)
%s

## Deep-dive question
%s

## User's answer
%s

---

Provide 2-3 sentences of feedback covering:
1. How accurate the answer is
2. What would strengthen it
3. A word of encouragement

Do NOT pose a new deep-dive question. Return only the feedback text.`,
		truncate(contextText, deepDiveContextMaxChars),
		question,
		userAnswer,
	)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
