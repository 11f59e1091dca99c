package recall

import "time"

// Importance of a key concept within the analyzed content.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

type KeyConcept struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Importance  Importance `json:"importance"`
}

// ContentAnalysis is the structured reading of a page produced by the LLM
// gateway. It must exist before a recall comparison can run.
type ContentAnalysis struct {
	KeyConcepts []KeyConcept `json:"keyConcepts"`
	MainIdeas   []string     `json:"mainIdeas"`
	Summary     string       `json:"summary"`
}

// ConceptFeedback appears in one of the three disjoint buckets of
// RecallFeedback. Hint is only populated for missed concepts.
type ConceptFeedback struct {
	Concept     string `json:"concept"`
	Explanation string `json:"explanation"`
	Hint        string `json:"hint,omitempty"`
}

type DeepDiveQuestion struct {
	Question       string `json:"question"`
	RelatedConcept string `json:"relatedConcept"`
}

type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelFair      Level = "fair"
	LevelNeedsWork Level = "needs_work"
)

// LevelForScore maps a 0-100 score onto its band. Lower bounds are
// inclusive: 90+ excellent, 70-89 good, 50-69 fair, below 50 needs_work.
func LevelForScore(score int) Level {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 70:
		return LevelGood
	case score >= 50:
		return LevelFair
	default:
		return LevelNeedsWork
	}
}

type RecallFeedback struct {
	Score             int                `json:"score"`
	Level             Level              `json:"level"`
	Summary           string             `json:"summary"`
	CorrectConcepts   []ConceptFeedback  `json:"correctConcepts"`
	MissedConcepts    []ConceptFeedback  `json:"missedConcepts"`
	IncorrectConcepts []ConceptFeedback  `json:"incorrectConcepts"`
	DeepDiveQuestions []DeepDiveQuestion `json:"deepDiveQuestions"`
}

// Normalize clamps the score into 0-100 and re-derives the level from the
// score bands, so an inconsistent level coming back from a provider can never
// contradict the score.
func (f *RecallFeedback) Normalize() {
	if f.Score < 0 {
		f.Score = 0
	}
	if f.Score > 100 {
		f.Score = 100
	}
	f.Level = LevelForScore(f.Score)
}

// LearningRecord is the persisted outcome of one completed session. Records
// are created on explicit save, never mutated, and deleted only on explicit
// user action.
type LearningRecord struct {
	ID         string          `json:"id"`
	CreatedAt  int64           `json:"createdAt"`
	PageTitle  string          `json:"pageTitle"`
	PageURL    string          `json:"pageUrl"`
	UserRecall string          `json:"userRecall"`
	Analysis   ContentAnalysis `json:"analysis"`
	Feedback   RecallFeedback  `json:"feedback"`
}

type LearningHistory struct {
	Records []LearningRecord `json:"records"`
}

func NowMillis() int64 {
	return time.Now().UnixMilli()
}
