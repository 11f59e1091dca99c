package session

import (
	"sync"
	"time"

	"github.com/echo-recall/backend/internal/extract"
	"github.com/echo-recall/backend/internal/recall"
)

// View is the single screen a session is showing. Exactly one view is active
// at any time.
type View string

const (
	ViewReady         View = "ready"
	ViewLoading       View = "loading"
	ViewWriting       View = "writing"
	ViewAnalyzing     View = "analyzing"
	ViewFeedback      View = "feedback"
	ViewError         View = "error"
	ViewHistory       View = "history"
	ViewHistoryDetail View = "historyDetail"
)

// DeepDiveState tracks one question's answer round independently of the
// session view, which stays on feedback throughout.
type DeepDiveState string

const (
	DeepDiveUnanswered DeepDiveState = "unanswered"
	DeepDiveSubmitting DeepDiveState = "submitting"
	DeepDiveAnswered   DeepDiveState = "answered"
	DeepDiveFailed     DeepDiveState = "failed"
)

type DeepDiveRound struct {
	State      DeepDiveState `json:"state"`
	UserAnswer string        `json:"userAnswer,omitempty"`
	Reply      string        `json:"reply,omitempty"`
	ErrorMsg   string        `json:"errorMessage,omitempty"`
}

// Session holds everything one learning pass accumulates. All mutation goes
// through the manager, which locks the session for the duration of each
// operation.
type Session struct {
	mu sync.Mutex

	ID        string
	View      View
	CreatedAt time.Time

	PageTitle     string
	PageURL       string
	ExtractedText string
	Stats         *extract.TextStats

	Analysis   *recall.ContentAnalysis
	UserRecall string
	Feedback   *recall.RecallFeedback
	DeepDives  map[int]*DeepDiveRound
	Saved      bool

	ErrorMsg string

	// SelectedRecordID is only meaningful on the historyDetail view.
	SelectedRecordID string
}

// Snapshot is the serializable projection of a session returned to clients
// and pushed over the event stream.
type Snapshot struct {
	ID        string                 `json:"id"`
	View      View                   `json:"view"`
	PageTitle string                 `json:"pageTitle,omitempty"`
	PageURL   string                 `json:"pageUrl,omitempty"`
	Stats     *extract.TextStats     `json:"stats,omitempty"`
	Analysis  *recall.ContentAnalysis `json:"analysis,omitempty"`
	UserRecall string                `json:"userRecall,omitempty"`
	Feedback  *recall.RecallFeedback `json:"feedback,omitempty"`
	DeepDives map[int]*DeepDiveRound `json:"deepDives,omitempty"`
	Saved     bool                   `json:"saved"`
	ErrorMsg  string                 `json:"errorMessage,omitempty"`

	SelectedRecordID string `json:"selectedRecordId,omitempty"`
}

// snapshotLocked must be called with s.mu held.
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.ID,
		View:       s.View,
		PageTitle:  s.PageTitle,
		PageURL:    s.PageURL,
		Stats:      s.Stats,
		Analysis:   s.Analysis,
		UserRecall: s.UserRecall,
		Feedback:   s.Feedback,
		Saved:      s.Saved,
		ErrorMsg:   s.ErrorMsg,

		SelectedRecordID: s.SelectedRecordID,
	}
	if len(s.DeepDives) > 0 {
		snap.DeepDives = make(map[int]*DeepDiveRound, len(s.DeepDives))
		for i, round := range s.DeepDives {
			copied := *round
			snap.DeepDives[i] = &copied
		}
	}
	return snap
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// resetLocked clears everything a fresh ready view starts without.
func (s *Session) resetLocked() {
	s.PageTitle = ""
	s.PageURL = ""
	s.ExtractedText = ""
	s.Stats = nil
	s.Analysis = nil
	s.UserRecall = ""
	s.Feedback = nil
	s.DeepDives = nil
	s.Saved = false
	s.ErrorMsg = ""
	s.SelectedRecordID = ""
}
