package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/budget-planner/internal/api/dto"
	"github.com/spec-kit/budget-planner/internal/auth"
	"github.com/spec-kit/budget-planner/internal/service"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

// BudgetsHandler manages budget endpoints.
type BudgetsHandler struct {
	service *service.BudgetService
}

// NewBudgetsHandler constructs handler.
func NewBudgetsHandler(budgetService *service.BudgetService) *BudgetsHandler {
	return &BudgetsHandler{service: budgetService}
}

// List GET /api/budgets.
func (h *BudgetsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	budgets, err := h.service.List(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}

	items := make([]dto.BudgetResponse, 0, len(budgets))
	for i := range budgets {
		items = append(items, dto.NewBudgetResponse(&budgets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /api/budgets.
func (h *BudgetsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.BudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	budget, err := h.service.Create(c.Context(), principal.User.ID, req.Category, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewBudgetResponse(budget)})
}

// Get GET /api/budgets/:category.
func (h *BudgetsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	budget, err := h.service.Get(c.Context(), principal.User.ID, c.Params("category"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBudgetResponse(budget)})
}

// Upsert PUT /api/budgets/:category.
func (h *BudgetsHandler) Upsert(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.BudgetAmountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	budget, err := h.service.Upsert(c.Context(), principal.User.ID, c.Params("category"), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBudgetResponse(budget)})
}

// Delete DELETE /api/budgets/:category.
func (h *BudgetsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.service.Delete(c.Context(), principal.User.ID, c.Params("category")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "budget deleted"}})
}

// StatusSummary GET /api/budgets/status/summary.
func (h *BudgetsHandler) StatusSummary(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	month := parseIntQuery(c.Query("month"), 0)
	year := parseIntQuery(c.Query("year"), 0)

	summary, err := h.service.StatusSummary(c.Context(), principal.User.ID, month, year)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}
