package handler

import (
	"smartretail-pos/internal/sync"

	"github.com/gofiber/fiber/v2"
)

type SyncHandler struct {
	engine *sync.Engine
}

func NewSyncHandler(engine *sync.Engine) *SyncHandler {
	return &SyncHandler{engine: engine}
}

// TriggerSync runs one sync pass right now, outside the periodic schedule
// POST /api/v1/sync
func (h *SyncHandler) TriggerSync(c *fiber.Ctx) error {
	if err := h.engine.Run(c.Context()); err != nil {
		// A failed pass left every row untouched; the period will retry.
		return c.Status(502).JSON(fiber.Map{"error": err.Error()})
	}

	pending, err := h.engine.PendingCount()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to count pending"})
	}

	return c.JSON(fiber.Map{"message": "Sync complete", "pending": pending})
}

// GetSyncStatus reports how many transactions still await upload
// GET /api/v1/sync/status
func (h *SyncHandler) GetSyncStatus(c *fiber.Ctx) error {
	pending, err := h.engine.PendingCount()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to count pending"})
	}
	return c.JSON(fiber.Map{"pending": pending})
}
