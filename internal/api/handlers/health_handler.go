package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Readiness reports whether the reconciled table has been loaded.
type Readiness interface {
	Loaded() bool
}

type HealthHandler struct {
	ready Readiness
}

func NewHealthHandler(ready Readiness) *HealthHandler {
	return &HealthHandler{ready: ready}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if !h.ready.Loaded() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "loading",
		})
	}
	return c.JSON(fiber.Map{
		"status": "ready",
	})
}
