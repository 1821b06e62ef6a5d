package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	startTime time.Time
	version   string
	readiness []func() error
}

func NewHealthHandler(version string, readiness ...func() error) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		version:   version,
		readiness: readiness,
	}
}

// Health serves GET /health and always answers while the process is alive.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	})
}

// Ready serves GET /ready and fails when a dependency check fails.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	for _, check := range h.readiness {
		if err := check(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"error":  err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{"status": "ready"})
}
