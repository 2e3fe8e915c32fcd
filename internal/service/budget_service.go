package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/budget-planner/internal/domain"
	"github.com/spec-kit/budget-planner/internal/repository"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

// BudgetService coordinates budget workflows.
type BudgetService struct {
	budgets      repository.BudgetRepository
	transactions repository.TransactionRepository
}

// BudgetDependencies bundles requirements for the budget service.
type BudgetDependencies struct {
	BudgetRepo      repository.BudgetRepository
	TransactionRepo repository.TransactionRepository
}

// NewBudgetService constructs the service.
func NewBudgetService(deps BudgetDependencies) *BudgetService {
	return &BudgetService{
		budgets:      deps.BudgetRepo,
		transactions: deps.TransactionRepo,
	}
}

// CategoryStatus compares one budget against actual spend for a month.
type CategoryStatus struct {
	Category         string  `json:"category"`
	BudgetAmount     float64 `json:"budget_amount"`
	Spent            float64 `json:"spent"`
	Remaining        float64 `json:"remaining"`
	Percentage       float64 `json:"percentage"`
	Status           string  `json:"status"`
	TransactionCount int     `json:"transaction_count"`
}

// StatusSummary is the month's spend-vs-budget report.
type StatusSummary struct {
	Month   int `json:"month"`
	Year    int `json:"year"`
	Summary struct {
		TotalBudgeted     float64 `json:"total_budgeted"`
		TotalSpent        float64 `json:"total_spent"`
		TotalRemaining    float64 `json:"total_remaining"`
		OverallPercentage float64 `json:"overall_percentage"`
	} `json:"summary"`
	BudgetStatus []CategoryStatus `json:"budget_status"`
}

// List returns the caller's budgets sorted by category.
func (s *BudgetService) List(ctx context.Context, userID string) ([]domain.Budget, error) {
	budgets, err := s.budgets.List(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return budgets, nil
}

// Create adds a budget for a category the caller has none for yet.
func (s *BudgetService) Create(ctx context.Context, userID, category string, amount float64) (*domain.Budget, error) {
	if strings.TrimSpace(category) == "" {
		return nil, apperrors.NewValidationError("category required", nil)
	}
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be greater than zero", nil)
	}

	if _, err := s.budgets.GetByCategory(ctx, userID, category); err == nil {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("budget for category %q already exists", category), nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	budget := &domain.Budget{UserID: userID, Category: category, Amount: amount}
	if err := s.budgets.Create(ctx, budget); err != nil {
		return nil, apperrors.MapError(err)
	}
	return budget, nil
}

// Get returns the caller's budget for one category.
func (s *BudgetService) Get(ctx context.Context, userID, category string) (*domain.Budget, error) {
	budget, err := s.budgets.GetByCategory(ctx, userID, category)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return budget, nil
}

// Upsert updates a category's budget amount, creating the budget when the
// category has none.
func (s *BudgetService) Upsert(ctx context.Context, userID, category string, amount float64) (*domain.Budget, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be greater than zero", nil)
	}

	err := s.budgets.UpdateAmount(ctx, userID, category, amount)
	if errors.Is(err, pgx.ErrNoRows) {
		budget := &domain.Budget{UserID: userID, Category: category, Amount: amount}
		if err := s.budgets.Create(ctx, budget); err != nil {
			return nil, apperrors.MapError(err)
		}
		return budget, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.Get(ctx, userID, category)
}

// Delete removes the caller's budget for one category.
func (s *BudgetService) Delete(ctx context.Context, userID, category string) error {
	if err := s.budgets.Delete(ctx, userID, category); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// StatusSummary joins the caller's budgets with that month's expense totals
// per category. Zero month/year default to the current month.
func (s *BudgetService) StatusSummary(ctx context.Context, userID string, month, year int) (*StatusSummary, error) {
	now := time.Now().UTC()
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}

	budgets, err := s.budgets.List(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	from, to := monthRange(year, time.Month(month))
	totals, err := s.transactions.TotalsByCategory(ctx, userID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	type spend struct {
		amount float64
		count  int
	}
	spendByCategory := make(map[string]spend)
	for _, t := range totals {
		if t.Type != domain.TransactionTypeExpense {
			continue
		}
		spendByCategory[t.Category] = spend{amount: t.Total, count: t.Count}
	}

	summary := &StatusSummary{Month: month, Year: year, BudgetStatus: make([]CategoryStatus, 0, len(budgets))}
	for _, budget := range budgets {
		sp := spendByCategory[budget.Category]

		percentage := 0.0
		if budget.Amount > 0 {
			percentage = round2(sp.amount / budget.Amount * 100)
		}

		status := "good"
		switch {
		case percentage >= 100:
			status = "over"
		case percentage >= 80:
			status = "warning"
		}

		summary.Summary.TotalBudgeted += budget.Amount
		summary.Summary.TotalSpent += sp.amount
		summary.BudgetStatus = append(summary.BudgetStatus, CategoryStatus{
			Category:         budget.Category,
			BudgetAmount:     budget.Amount,
			Spent:            sp.amount,
			Remaining:        budget.Amount - sp.amount,
			Percentage:       percentage,
			Status:           status,
			TransactionCount: sp.count,
		})
	}

	summary.Summary.TotalRemaining = summary.Summary.TotalBudgeted - summary.Summary.TotalSpent
	if summary.Summary.TotalBudgeted > 0 {
		summary.Summary.OverallPercentage = round2(summary.Summary.TotalSpent / summary.Summary.TotalBudgeted * 100)
	}

	sort.Slice(summary.BudgetStatus, func(i, j int) bool {
		return summary.BudgetStatus[i].Percentage > summary.BudgetStatus[j].Percentage
	})

	return summary, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
