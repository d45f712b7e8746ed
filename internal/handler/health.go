package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/njchilds90/eqsolve/internal/dto"
)

// RootMessage is the greeting served at GET /
const RootMessage = "Equation API. Try /solve?equation=1+1"

// HealthHandler handles the liveness endpoints
type HealthHandler struct {
	now func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

// Root handles GET /
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(dto.MessageResponse{Message: RootMessage})
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status: "ok",
		Time:   h.now().UTC(),
	})
}
