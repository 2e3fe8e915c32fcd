package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/budget-planner/internal/auth"
)

// InfoHandler serves the public API root. Like every public surface it
// disappears behind a 404 while any account has travel mode enabled.
type InfoHandler struct {
	gate *auth.Gate
}

// NewInfoHandler constructs handler.
func NewInfoHandler(gate *auth.Gate) *InfoHandler {
	return &InfoHandler{gate: gate}
}

// Root handles GET /api/.
func (h *InfoHandler) Root(c *fiber.Ctx) error {
	if err := h.gate.CheckPublicAccess(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Budget Planner API is running!"})
}
