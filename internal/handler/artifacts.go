package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/njchilds90/eqsolve/internal/artifact"
	"github.com/njchilds90/eqsolve/internal/dto"
)

// ArtifactHandler serves stored plot images
type ArtifactHandler struct {
	store  artifact.Store
	logger *zap.Logger
}

// NewArtifactHandler creates a new artifact handler
func NewArtifactHandler(store artifact.Store, logger *zap.Logger) *ArtifactHandler {
	return &ArtifactHandler{
		store:  store,
		logger: logger,
	}
}

// Get handles GET /static/plots/:name
func (h *ArtifactHandler) Get(c *fiber.Ctx) error {
	name := c.Params("name")

	rc, err := h.store.Open(c.UserContext(), name)
	if errors.Is(err, artifact.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "plot not found"})
	}
	if err != nil {
		h.logger.Error("failed to open artifact", zap.String("name", name), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read plot")
	}

	c.Set(fiber.HeaderContentType, artifact.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	// The response body closes rc once it has been written
	return c.SendStream(rc)
}
