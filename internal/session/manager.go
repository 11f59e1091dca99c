package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/cache/redis"
	"github.com/echo-recall/backend/internal/extract"
	"github.com/echo-recall/backend/internal/llm"
	"github.com/echo-recall/backend/internal/metrics"
	"github.com/echo-recall/backend/internal/recall"
	"github.com/echo-recall/backend/internal/settings"
	"github.com/echo-recall/backend/internal/storage/sqlite"
	"github.com/echo-recall/backend/pkg/config"
	"github.com/echo-recall/backend/pkg/logger"
)

// minSignificantText is the smallest extracted text, in characters, worth
// analyzing. Anything shorter routes the session to the error view.
const minSignificantText = 100

var (
	ErrInvalidTransition = errors.New("action not valid in current view")
	ErrUnknownQuestion   = errors.New("deep-dive question index out of range")
)

const (
	msgExtractionFailed = "Could not extract text from this page."
	msgInsufficientText = "Could not find enough readable text on this page."
	msgNoCredential     = "No API key configured. Add one in settings."
	msgNoAnalysis       = "Analysis data is missing. Start over from the beginning."
	msgUnauthorized     = "The API key was rejected. Check it in settings."
	msgRateLimited      = "Rate limit reached. Wait a moment and try again."
	msgServerError      = "The provider is having trouble. Try again later."
	msgParseFailure     = "Could not understand the provider's response. Try again."
	msgGenericFailure   = "Something went wrong. Try again."
)

// Manager drives the learning-session state machine. Each public method is
// one user action; actions invoked from the wrong view return
// ErrInvalidTransition and leave the session untouched.
type Manager struct {
	store    *Store
	hub      *Hub
	gateway  *llm.Gateway
	history  *sqlite.Client
	settings *settings.Store
	cache    *redis.Client
	cfg      *config.Config
}

// NewManager wires the session orchestrator. cache may be nil when the
// analysis cache is disabled.
func NewManager(store *Store, hub *Hub, gateway *llm.Gateway, history *sqlite.Client, st *settings.Store, cache *redis.Client, cfg *config.Config) *Manager {
	return &Manager{
		store:    store,
		hub:      hub,
		gateway:  gateway,
		history:  history,
		settings: st,
		cache:    cache,
		cfg:      cfg,
	}
}

func (m *Manager) Create() *Session {
	return m.store.Create()
}

func (m *Manager) Get(id string) (*Session, bool) {
	return m.store.Get(id)
}

// Start runs the extract-then-analyze pipeline. Valid from ready and from
// error, where it acts as the retry action and restarts from scratch.
func (m *Manager) Start(ctx context.Context, sess *Session, html, pageURL string) (Snapshot, error) {
	sess.mu.Lock()
	if sess.View != ViewReady && sess.View != ViewError {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), ErrInvalidTransition
	}
	sess.resetLocked()
	sess.View = ViewLoading
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)
	metrics.SessionsStarted.Inc()

	content, err := extract.Extract(strings.NewReader(html), pageURL)
	if err != nil {
		metrics.ExtractionFailures.WithLabelValues("parse").Inc()
		return m.fail(sess, msgExtractionFailed), nil
	}

	if utf8.RuneCountInString(content.Text) < minSignificantText {
		metrics.ExtractionFailures.WithLabelValues("insufficient_text").Inc()
		logger.Info("extraction yielded too little text",
			zap.String("session_id", sess.ID),
			zap.Int("chars", utf8.RuneCountInString(content.Text)),
		)
		return m.fail(sess, msgInsufficientText), nil
	}

	cred, err := m.credential()
	if err != nil {
		logger.Error("credential lookup failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return m.fail(sess, msgGenericFailure), nil
	}
	if cred.Empty() {
		return m.fail(sess, msgNoCredential), nil
	}

	analysis := m.cachedAnalysis(ctx, content.Text)
	if analysis == nil {
		analysis, err = m.timedAnalyze(ctx, cred, content.Text)
		if err != nil {
			return m.fail(sess, userMessage(err)), nil
		}
		if m.cache != nil {
			m.cache.SetAnalysis(ctx, content.Text, analysis)
		}
	}

	stats := extract.Stats(content.Text)

	sess.mu.Lock()
	sess.PageTitle = content.Title
	sess.PageURL = content.URL
	sess.ExtractedText = content.Text
	sess.Stats = &stats
	sess.Analysis = analysis
	sess.View = ViewWriting
	snap = sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)
	return snap, nil
}

// SubmitRecall grades the user's recall against the stored analysis. Valid
// only from writing.
func (m *Manager) SubmitRecall(ctx context.Context, sess *Session, recallText string) (Snapshot, error) {
	sess.mu.Lock()
	if sess.View != ViewWriting {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), ErrInvalidTransition
	}
	if sess.Analysis == nil {
		sess.View = ViewError
		sess.ErrorMsg = msgNoAnalysis
		snap := sess.snapshotLocked()
		sess.mu.Unlock()
		m.publish(sess.ID, snap)
		return snap, nil
	}
	sess.UserRecall = recallText
	sess.View = ViewAnalyzing
	analysis := sess.Analysis
	original := sess.ExtractedText
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)

	cred, err := m.credential()
	if err != nil {
		logger.Error("credential lookup failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return m.fail(sess, msgGenericFailure), nil
	}
	if cred.Empty() {
		return m.fail(sess, msgNoCredential), nil
	}

	start := time.Now()
	feedback, err := m.gateway.CompareRecall(ctx, cred, original, recallText, analysis)
	metrics.LLMRequestDuration.WithLabelValues("compare").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMErrors.WithLabelValues("compare", errorKind(err)).Inc()
		return m.fail(sess, userMessage(err)), nil
	}

	metrics.RecallScores.Observe(float64(feedback.Score))

	sess.mu.Lock()
	sess.Feedback = feedback
	sess.DeepDives = make(map[int]*DeepDiveRound, len(feedback.DeepDiveQuestions))
	for i := range feedback.DeepDiveQuestions {
		sess.DeepDives[i] = &DeepDiveRound{State: DeepDiveUnanswered}
	}
	sess.View = ViewFeedback
	snap = sess.snapshotLocked()
	sess.mu.Unlock()

	logger.Info("recall graded",
		zap.String("session_id", sess.ID),
		zap.Int("score", feedback.Score),
		zap.String("level", string(feedback.Level)),
	)

	m.publish(sess.ID, snap)
	return snap, nil
}

// AnswerDeepDive runs one follow-up question round. The parent view stays on
// feedback throughout; only the question's own round state changes. A failed
// round can be resubmitted.
func (m *Manager) AnswerDeepDive(ctx context.Context, sess *Session, index int, answer string) (Snapshot, error) {
	sess.mu.Lock()
	if sess.View != ViewFeedback {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), ErrInvalidTransition
	}
	round, ok := sess.DeepDives[index]
	if !ok {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), ErrUnknownQuestion
	}
	if round.State == DeepDiveSubmitting || round.State == DeepDiveAnswered {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), ErrInvalidTransition
	}
	round.State = DeepDiveSubmitting
	round.UserAnswer = answer
	round.ErrorMsg = ""
	question := sess.Feedback.DeepDiveQuestions[index].Question
	contextText := sess.ExtractedText
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)

	cred, err := m.credential()

	var reply string
	switch {
	case err != nil:
		// Falls through to the failed-round path below; the view must stay
		// recoverable even when the settings store is unhealthy.
		logger.Error("credential lookup failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	case cred.Empty():
		err = llm.ErrNoCredential
	default:
		start := time.Now()
		reply, err = m.gateway.AnswerDeepDive(ctx, cred, question, answer, contextText)
		metrics.LLMRequestDuration.WithLabelValues("deepdive").Observe(time.Since(start).Seconds())
	}

	sess.mu.Lock()
	if err != nil {
		metrics.LLMErrors.WithLabelValues("deepdive", errorKind(err)).Inc()
		round.State = DeepDiveFailed
		round.ErrorMsg = userMessage(err)
	} else {
		round.State = DeepDiveAnswered
		round.Reply = reply
	}
	snap = sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)
	return snap, nil
}

// Save persists the session's outcome as a learning record. Idempotent: once
// saved, further calls succeed without writing again.
func (m *Manager) Save(sess *Session) (Snapshot, error) {
	sess.mu.Lock()

	if sess.View != ViewFeedback {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), ErrInvalidTransition
	}
	if sess.Saved {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), nil
	}

	record := &recall.LearningRecord{
		ID:         recall.NewRecordID(),
		CreatedAt:  recall.NowMillis(),
		PageTitle:  sess.PageTitle,
		PageURL:    sess.PageURL,
		UserRecall: sess.UserRecall,
		Analysis:   *sess.Analysis,
		Feedback:   *sess.Feedback,
	}
	if err := m.history.SaveRecord(record); err != nil {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), fmt.Errorf("failed to save record: %w", err)
	}

	metrics.RecordsSaved.Inc()
	sess.Saved = true
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)
	return snap, nil
}

// Back walks toward ready: historyDetail returns to history, every other
// backable view resets to ready.
func (m *Manager) Back(sess *Session) (Snapshot, error) {
	sess.mu.Lock()

	switch sess.View {
	case ViewHistoryDetail:
		sess.SelectedRecordID = ""
		sess.View = ViewHistory
	case ViewFeedback, ViewError, ViewHistory, ViewWriting:
		sess.resetLocked()
		sess.View = ViewReady
	default:
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), ErrInvalidTransition
	}

	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)
	return snap, nil
}

func (m *Manager) ViewHistory(sess *Session) (Snapshot, error) {
	sess.mu.Lock()

	if sess.View != ViewReady {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), ErrInvalidTransition
	}
	sess.View = ViewHistory

	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)
	return snap, nil
}

// SelectRecord opens one history record. The record must exist.
func (m *Manager) SelectRecord(sess *Session, recordID string) (Snapshot, error) {
	if _, err := m.history.GetRecord(recordID); err != nil {
		return sess.Snapshot(), err
	}

	sess.mu.Lock()

	if sess.View != ViewHistory {
		defer sess.mu.Unlock()
		return sess.snapshotLocked(), ErrInvalidTransition
	}
	sess.SelectedRecordID = recordID
	sess.View = ViewHistoryDetail

	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)
	return snap, nil
}

// HasCredential reports whether any credential is available, stored or
// configured. The client uses it to gate the whole view tree.
func (m *Manager) HasCredential() (bool, error) {
	cred, err := m.credential()
	if err != nil {
		return false, err
	}
	return !cred.Empty(), nil
}

// credential resolves the active credential: the user-stored one wins,
// falling back to the server-configured key for the active provider.
func (m *Manager) credential() (llm.Credential, error) {
	value, source, err := m.settings.Credential()
	if err != nil {
		return llm.Credential{}, err
	}
	if value != "" {
		return llm.Credential{Value: value, Bearer: source == settings.SourceOAuth}, nil
	}

	switch m.cfg.LLM.Provider {
	case "gemini":
		return llm.Credential{Value: m.cfg.LLM.Gemini.APIKey}, nil
	case "openai":
		return llm.Credential{Value: m.cfg.LLM.OpenAI.APIKey}, nil
	default:
		return llm.Credential{Value: m.cfg.LLM.Claude.APIKey}, nil
	}
}

func (m *Manager) cachedAnalysis(ctx context.Context, text string) *recall.ContentAnalysis {
	if m.cache == nil {
		return nil
	}
	if analysis := m.cache.GetAnalysis(ctx, text); analysis != nil {
		metrics.CacheHits.WithLabelValues("analysis").Inc()
		return analysis
	}
	metrics.CacheMisses.WithLabelValues("analysis").Inc()
	return nil
}

func (m *Manager) timedAnalyze(ctx context.Context, cred llm.Credential, text string) (*recall.ContentAnalysis, error) {
	start := time.Now()
	analysis, err := m.gateway.AnalyzeContent(ctx, cred, text)
	metrics.LLMRequestDuration.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMErrors.WithLabelValues("analyze", errorKind(err)).Inc()
		return nil, err
	}
	return analysis, nil
}

// fail lands the session on the error view with a user-facing message. The
// user recovers with back or retry; nothing is retried automatically.
func (m *Manager) fail(sess *Session, msg string) Snapshot {
	sess.mu.Lock()
	sess.View = ViewError
	sess.ErrorMsg = msg
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	m.publish(sess.ID, snap)
	return snap
}

func (m *Manager) publish(sessionID string, snap Snapshot) {
	m.hub.Publish(Event{SessionID: sessionID, Snapshot: snap})
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		return msgNoCredential
	case errors.Is(err, llm.ErrUnauthorized):
		return msgUnauthorized
	case errors.Is(err, llm.ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, llm.ErrServerError):
		return msgServerError
	case errors.Is(err, llm.ErrResponseParse):
		return msgParseFailure
	default:
		return msgGenericFailure
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		return "no_credential"
	case errors.Is(err, llm.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, llm.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, llm.ErrServerError):
		return "server_error"
	case errors.Is(err, llm.ErrResponseParse):
		return "parse_failure"
	default:
		return "other"
	}
}
