package dto

import (
	"time"

	"github.com/spec-kit/budget-planner/internal/domain"
)

// BudgetRequest payload for creating a budget.
type BudgetRequest struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// BudgetAmountRequest payload for updating a budget's amount.
type BudgetAmountRequest struct {
	Amount float64 `json:"amount"`
}

// BudgetResponse is the public view of a budget.
type BudgetResponse struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBudgetResponse maps the domain model to its public view.
func NewBudgetResponse(budget *domain.Budget) BudgetResponse {
	return BudgetResponse{
		ID:        budget.ID,
		Category:  budget.Category,
		Amount:    budget.Amount,
		CreatedAt: budget.CreatedAt,
		UpdatedAt: budget.UpdatedAt,
	}
}
