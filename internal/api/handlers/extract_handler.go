package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/extract"
	"github.com/echo-recall/backend/pkg/logger"
)

// ExtractHandler exposes the extraction heuristic on its own, mainly so the
// extension can preview what would be analyzed.
type ExtractHandler struct{}

func NewExtractHandler() *ExtractHandler {
	return &ExtractHandler{}
}

func (h *ExtractHandler) Extract(c *fiber.Ctx) error {
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

	content, err := extract.Extract(strings.NewReader(req.HTML), req.PageURL)
	if err != nil {
		logger.Error("Extraction failed", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Could not parse the page",
		})
	}

	stats := extract.Stats(content.Text)

	return c.JSON(fiber.Map{
		"text":  content.Text,
		"title": content.Title,
		"url":   content.URL,
		"stats": stats,
	})
}
