package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	appName string
	mode    string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(appName, mode string) *HealthHandler {
	return &HealthHandler{appName: appName, mode: mode}
}

// Register sets up the health route.
func (h *HealthHandler) Register(router fiber.Router) {
	route(router, fiber.MethodGet, "/health", h.Health)
}

// Health handles GET /health. No auth is required.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "OK",
		"message":   h.appName + " is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"mode":      h.mode,
	})
}
