package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/llm"
	"github.com/echo-recall/backend/internal/settings"
	"github.com/echo-recall/backend/pkg/logger"
)

type SettingsHandler struct {
	store   *settings.Store
	gateway *llm.Gateway
}

func NewSettingsHandler(store *settings.Store, gateway *llm.Gateway) *SettingsHandler {
	return &SettingsHandler{
		store:   store,
		gateway: gateway,
	}
}

// GetSettings reports what is configured without ever echoing the secret.
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	value, source, err := h.store.Credential()
	if err != nil {
		logger.Error("Failed to read credential", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read settings",
		})
	}

	darkMode, err := h.store.DarkMode()
	if err != nil {
		logger.Error("Failed to read dark mode flag", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read settings",
		})
	}

	resp := fiber.Map{
		"hasCredential": value != "",
		"darkMode":      darkMode,
	}
	if value != "" {
		resp["credentialSource"] = source
	}

	return c.JSON(resp)
}

// SetCredential stores an API key, optionally validating it against the
// provider first.
func (h *SettingsHandler) SetCredential(c *fiber.Ctx) error {
	var req struct {
		APIKey   string `json:"apiKey"`
		Validate bool   `json:"validate"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.APIKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "apiKey is required",
		})
	}

	if req.Validate {
		ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
		defer cancel()

		if !h.gateway.ValidateCredential(ctx, llm.Credential{Value: req.APIKey}) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "The API key was rejected by the provider",
			})
		}
	}

	if err := h.store.SetCredential(req.APIKey, settings.SourceAPIKey); err != nil {
		logger.Error("Failed to store credential", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store credential",
		})
	}

	logger.Info("Credential stored", zap.String("source", settings.SourceAPIKey))

	return c.JSON(fiber.Map{"hasCredential": true})
}

func (h *SettingsHandler) ClearCredential(c *fiber.Ctx) error {
	if err := h.store.ClearCredential(); err != nil {
		logger.Error("Failed to clear credential", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear credential",
		})
	}

	logger.Info("Credential cleared")

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SettingsHandler) SetDarkMode(c *fiber.Ctx) error {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.store.SetDarkMode(req.Enabled); err != nil {
		logger.Error("Failed to store dark mode flag", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store setting",
		})
	}

	return c.JSON(fiber.Map{"darkMode": req.Enabled})
}
