package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/recall"
	"github.com/echo-recall/backend/internal/storage/sqlite"
	"github.com/echo-recall/backend/pkg/logger"
)

type HistoryHandler struct {
	store *sqlite.Client
}

func NewHistoryHandler(store *sqlite.Client) *HistoryHandler {
	return &HistoryHandler{
		store: store,
	}
}

// ListRecords returns the learning history newest-first.
func (h *HistoryHandler) ListRecords(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a non-negative integer",
			})
		}
		limit = parsed
	}

	records, err := h.store.ListRecords(limit)
	if err != nil {
		logger.Error("Failed to list records", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list history",
		})
	}
	if records == nil {
		records = []recall.LearningRecord{}
	}

	return c.JSON(recall.LearningHistory{Records: records})
}

func (h *HistoryHandler) GetRecord(c *fiber.Ctx) error {
	record, err := h.store.GetRecord(c.Params("id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Record not found",
			})
		}
		logger.Error("Failed to get record", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get record",
		})
	}

	return c.JSON(record)
}

func (h *HistoryHandler) DeleteRecord(c *fiber.Ctx) error {
	err := h.store.DeleteRecord(c.Params("id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Record not found",
			})
		}
		logger.Error("Failed to delete record", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete record",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HistoryHandler) ClearRecords(c *fiber.Ctx) error {
	if err := h.store.ClearRecords(); err != nil {
		logger.Error("Failed to clear history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear history",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
