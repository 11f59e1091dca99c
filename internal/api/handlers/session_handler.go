package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/session"
	"github.com/echo-recall/backend/internal/storage/sqlite"
	"github.com/echo-recall/backend/pkg/logger"
)

type SessionHandler struct {
	manager *session.Manager
}

func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{
		manager: manager,
	}
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	sess := h.manager.Create()

	hasCredential, err := h.manager.HasCredential()
	if err != nil {
		logger.Error("Failed to check credential", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}

	logger.Info("Session created", zap.String("session_id", sess.ID))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session":       sess.Snapshot(),
		"hasCredential": hasCredential,
	})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	sess, ok := h.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.JSON(fiber.Map{"session": sess.Snapshot()})
}

// Start runs the extraction and analysis pipeline for an uploaded page.
func (h *SessionHandler) Start(c *fiber.Ctx) error {
	sess, ok := h.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var req struct {
		HTML    string `json:"html"`
		PageURL string `json:"pageUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.HTML == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "html is required",
		})
	}

	snap, err := h.manager.Start(c.Context(), sess, req.HTML, req.PageURL)
	if err != nil {
		return h.transitionError(c, sess.ID, "start", err, snap)
	}

	return c.JSON(fiber.Map{"session": snap})
}

func (h *SessionHandler) SubmitRecall(c *fiber.Ctx) error {
	sess, ok := h.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	snap, err := h.manager.SubmitRecall(c.Context(), sess, req.Text)
	if err != nil {
		return h.transitionError(c, sess.ID, "recall", err, snap)
	}

	return c.JSON(fiber.Map{"session": snap})
}

func (h *SessionHandler) AnswerDeepDive(c *fiber.Ctx) error {
	sess, ok := h.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var req struct {
		QuestionIndex int    `json:"questionIndex"`
		Answer        string `json:"answer"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Answer == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "answer is required",
		})
	}

	snap, err := h.manager.AnswerDeepDive(c.Context(), sess, req.QuestionIndex, req.Answer)
	if err != nil {
		if errors.Is(err, session.ErrUnknownQuestion) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown question index",
			})
		}
		return h.transitionError(c, sess.ID, "deepdive", err, snap)
	}

	return c.JSON(fiber.Map{"session": snap})
}

func (h *SessionHandler) Save(c *fiber.Ctx) error {
	sess, ok := h.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	snap, err := h.manager.Save(sess)
	if err != nil {
		return h.transitionError(c, sess.ID, "save", err, snap)
	}

	return c.JSON(fiber.Map{"session": snap})
}

func (h *SessionHandler) Back(c *fiber.Ctx) error {
	sess, ok := h.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	snap, err := h.manager.Back(sess)
	if err != nil {
		return h.transitionError(c, sess.ID, "back", err, snap)
	}

	return c.JSON(fiber.Map{"session": snap})
}

func (h *SessionHandler) ViewHistory(c *fiber.Ctx) error {
	sess, ok := h.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	snap, err := h.manager.ViewHistory(sess)
	if err != nil {
		return h.transitionError(c, sess.ID, "history", err, snap)
	}

	return c.JSON(fiber.Map{"session": snap})
}

func (h *SessionHandler) SelectRecord(c *fiber.Ctx) error {
	sess, ok := h.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	snap, err := h.manager.SelectRecord(sess, c.Params("recordID"))
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Record not found",
			})
		}
		return h.transitionError(c, sess.ID, "select_record", err, snap)
	}

	return c.JSON(fiber.Map{"session": snap})
}

func (h *SessionHandler) transitionError(c *fiber.Ctx, sessionID, action string, err error, snap session.Snapshot) error {
	if errors.Is(err, session.ErrInvalidTransition) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Action not valid in current view",
			"session": snap,
		})
	}

	logger.Error("Session action failed",
		zap.String("session_id", sessionID),
		zap.String("action", action),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal error",
	})
}
