package extract

import (
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Reading speed used for the estimated reading time, in words per minute.
const readingWPM = 200.0

type TextStats struct {
	WordCount        int     `json:"wordCount"`
	SentenceCount    int     `json:"sentenceCount"`
	EstimatedReadMin float64 `json:"estimatedReadMin"`
}

// Stats tokenizes the text and reports word/sentence counts plus an estimated
// reading time. Tagging and entity extraction are disabled; only the
// tokenizer and sentence segmenter run.
func Stats(text string) TextStats {
	if text == "" {
		return TextStats{}
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return TextStats{}
	}

	words := 0
	for _, tok := range doc.Tokens() {
		if isWord(tok.Text) {
			words++
		}
	}

	return TextStats{
		WordCount:        words,
		SentenceCount:    len(doc.Sentences()),
		EstimatedReadMin: float64(words) / readingWPM,
	}
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
