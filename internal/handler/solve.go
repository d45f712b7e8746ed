package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/njchilds90/eqsolve/internal/dto"
	"github.com/njchilds90/eqsolve/internal/middleware"
	"github.com/njchilds90/eqsolve/internal/service"
	"github.com/njchilds90/eqsolve/internal/validator"
)

// MissingEquationMessage is returned when ?equation= is absent or blank
const MissingEquationMessage = "Missing 'equation' query parameter"

// SolveHandler handles GET /solve
type SolveHandler struct {
	solver    service.Solver
	logger    *zap.Logger
	maxLength int
}

// NewSolveHandler creates a new solve handler. Equations longer than
// maxLength characters are rejected before solving.
func NewSolveHandler(solver service.Solver, logger *zap.Logger, maxLength int) *SolveHandler {
	return &SolveHandler{
		solver:    solver,
		logger:    logger,
		maxLength: maxLength,
	}
}

// Solve handles GET /solve?equation=...
func (h *SolveHandler) Solve(c *fiber.Ctx) error {
	var q dto.SolveQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	equation := strings.TrimSpace(q.Equation)

	if err := validator.ValidateVar("equation", equation, fmt.Sprintf("notblank,max=%d", h.maxLength)); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && ve.Has("notblank") {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: MissingEquationMessage})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	resp, err := h.solver.Solve(c.UserContext(), equation)
	if err != nil {
		h.logger.Debug("solve rejected",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("equation", equation),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(resp)
}
