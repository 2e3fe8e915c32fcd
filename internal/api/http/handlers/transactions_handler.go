package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/budget-planner/internal/api/dto"
	"github.com/spec-kit/budget-planner/internal/auth"
	"github.com/spec-kit/budget-planner/internal/domain"
	"github.com/spec-kit/budget-planner/internal/service"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

const dateLayout = "2006-01-02"

// TransactionsHandler manages transaction endpoints.
type TransactionsHandler struct {
	service *service.TransactionService
}

// NewTransactionsHandler constructs handler.
func NewTransactionsHandler(transactionService *service.TransactionService) *TransactionsHandler {
	return &TransactionsHandler{service: transactionService}
}

// Create POST /api/transactions.
func (h *TransactionsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return apperrors.NewValidationError("date must be YYYY-MM-DD", nil)
	}

	tx, err := h.service.Create(c.Context(), principal.User.ID, service.TransactionInput{
		Type:        domain.TransactionType(req.Type),
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTransactionResponse(tx)})
}

// List GET /api/transactions.
func (h *TransactionsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := service.ListFilter{
		Category: c.Query("category"),
		Month:    parseIntQuery(c.Query("month"), 0),
		Year:     parseIntQuery(c.Query("year"), 0),
		Limit:    parseIntQuery(c.Query("limit"), 100),
	}
	if t := domain.TransactionType(c.Query("type")); t.Valid() {
		filter.Type = t
	}

	transactions, err := h.service.List(c.Context(), principal.User.ID, filter)
	if err != nil {
		return err
	}

	items := make([]dto.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		items = append(items, dto.NewTransactionResponse(&transactions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/transactions/:id.
func (h *TransactionsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	tx, err := h.service.Get(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransactionResponse(tx)})
}

// Update PUT /api/transactions/:id.
func (h *TransactionsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.TransactionPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	patch := service.TransactionPatch{
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Type != nil {
		t := domain.TransactionType(*req.Type)
		patch.Type = &t
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return apperrors.NewValidationError("date must be YYYY-MM-DD", nil)
		}
		patch.Date = &date
	}

	tx, err := h.service.Update(c.Context(), principal.User.ID, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransactionResponse(tx)})
}

// Delete DELETE /api/transactions/:id.
func (h *TransactionsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.service.Delete(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "transaction deleted"}})
}

// MonthlySummary GET /api/transactions/summary/monthly.
func (h *TransactionsHandler) MonthlySummary(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	month := parseIntQuery(c.Query("month"), 0)
	year := parseIntQuery(c.Query("year"), 0)

	summary, err := h.service.MonthlySummary(c.Context(), principal.User.ID, month, year)
	if err != nil {
		return err
	}

	// A panic-mode session with hide_stats set gets a zeroed view: the app
	// behaves normally but discloses no real amounts.
	if principal.PanicMode && principal.User.TravelMode.HideStats {
		summary = &service.MonthlySummary{
			Month:      summary.Month,
			Year:       summary.Year,
			Categories: map[string]service.CategoryBreakdown{},
		}
	}

	return c.JSON(fiber.Map{"data": summary})
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
