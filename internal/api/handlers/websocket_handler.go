package handlers

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/session"
	"github.com/echo-recall/backend/pkg/logger"
)

// WebSocketHandler streams session snapshots to the extension so the view
// can follow state changes without polling.
type WebSocketHandler struct {
	manager *session.Manager
	hub     *session.Hub
}

func NewWebSocketHandler(manager *session.Manager, hub *session.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		hub:     hub,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	sessionID := c.Params("id")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed", zap.String("session_id", sessionID))
	}()

	sess, ok := h.manager.Get(sessionID)
	if !ok {
		c.WriteJSON(map[string]string{"error": "Session not found"})
		return
	}

	logger.Info("WebSocket connection established", zap.String("session_id", sessionID))

	events, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	// Current state first, so the client never starts from a blank view.
	if err := c.WriteJSON(session.Event{SessionID: sessionID, Snapshot: sess.Snapshot()}); err != nil {
		return
	}

	// Reads are discarded; their only purpose is detecting disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteJSON(evt); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
