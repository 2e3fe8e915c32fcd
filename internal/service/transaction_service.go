package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/budget-planner/internal/domain"
	"github.com/spec-kit/budget-planner/internal/events"
	"github.com/spec-kit/budget-planner/internal/repository"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

// TransactionService coordinates transaction workflows.
type TransactionService struct {
	transactions repository.TransactionRepository
	budgets      repository.BudgetRepository
	dispatcher   events.Dispatcher
}

// TransactionDependencies bundles requirements for the transaction service.
type TransactionDependencies struct {
	TransactionRepo repository.TransactionRepository
	BudgetRepo      repository.BudgetRepository
	Dispatcher      events.Dispatcher
}

// NewTransactionService constructs the service.
func NewTransactionService(deps TransactionDependencies) *TransactionService {
	return &TransactionService{
		transactions: deps.TransactionRepo,
		budgets:      deps.BudgetRepo,
		dispatcher:   deps.Dispatcher,
	}
}

// TransactionInput describes a transaction create payload.
type TransactionInput struct {
	Type        domain.TransactionType
	Category    string
	Amount      float64
	Description string
	Date        time.Time
}

// TransactionPatch describes a partial update; nil fields are left as is.
type TransactionPatch struct {
	Type        *domain.TransactionType
	Category    *string
	Amount      *float64
	Description *string
	Date        *time.Time
}

// ListFilter narrows transaction listings.
type ListFilter struct {
	Type     domain.TransactionType
	Category string
	Month    int
	Year     int
	Limit    int
}

// CategoryBreakdown splits a category's monthly totals by direction.
type CategoryBreakdown struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// MonthlySummary aggregates one month of activity.
type MonthlySummary struct {
	Month         int                          `json:"month"`
	Year          int                          `json:"year"`
	TotalIncome   float64                      `json:"total_income"`
	TotalExpenses float64                      `json:"total_expenses"`
	NetBalance    float64                      `json:"net_balance"`
	Categories    map[string]CategoryBreakdown `json:"categories"`
}

// Create records a new transaction for the user and evaluates budget alerts
// when it is an expense.
func (s *TransactionService) Create(ctx context.Context, userID string, input TransactionInput) (*domain.Transaction, error) {
	if err := validateTransactionInput(input); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		UserID:      userID,
		Type:        input.Type,
		Category:    input.Category,
		Amount:      input.Amount,
		Description: input.Description,
		Date:        input.Date,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, apperrors.MapError(err)
	}

	if tx.Type == domain.TransactionTypeExpense {
		s.evaluateBudgetAlert(ctx, tx)
	}
	return tx, nil
}

// Get returns one of the caller's transactions.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, userID, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tx, nil
}

// Update applies a partial update to one of the caller's transactions.
func (s *TransactionService) Update(ctx context.Context, userID, id string, patch TransactionPatch) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, userID, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, apperrors.NewValidationError("type must be income or expense", nil)
		}
		tx.Type = *patch.Type
	}
	if patch.Category != nil {
		if strings.TrimSpace(*patch.Category) == "" {
			return nil, apperrors.NewValidationError("category required", nil)
		}
		tx.Category = *patch.Category
	}
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return nil, apperrors.NewValidationError("amount must be greater than zero", nil)
		}
		tx.Amount = *patch.Amount
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}

	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, apperrors.MapError(err)
	}

	if tx.Type == domain.TransactionTypeExpense {
		s.evaluateBudgetAlert(ctx, tx)
	}
	return tx, nil
}

// Delete removes one of the caller's transactions.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.transactions.Delete(ctx, userID, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// List returns the caller's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string, filter ListFilter) ([]domain.Transaction, error) {
	repoFilter := repository.TransactionFilter{
		Type:     filter.Type,
		Category: filter.Category,
		Limit:    filter.Limit,
	}
	if filter.Year > 0 {
		var from, to time.Time
		if filter.Month >= 1 && filter.Month <= 12 {
			from, to = monthRange(filter.Year, time.Month(filter.Month))
		} else {
			from = time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
			to = from.AddDate(1, 0, 0)
		}
		repoFilter.From = &from
		repoFilter.To = &to
	}

	transactions, err := s.transactions.List(ctx, userID, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return transactions, nil
}

// MonthlySummary aggregates the caller's income and expenses for a month,
// grouped by category.
func (s *TransactionService) MonthlySummary(ctx context.Context, userID string, month, year int) (*MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.NewValidationError("month must be between 1 and 12", nil)
	}
	if year < 2000 || year > 2100 {
		return nil, apperrors.NewValidationError("year must be between 2000 and 2100", nil)
	}

	from, to := monthRange(year, time.Month(month))
	totals, err := s.transactions.TotalsByCategory(ctx, userID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	summary := &MonthlySummary{
		Month:      month,
		Year:       year,
		Categories: make(map[string]CategoryBreakdown),
	}
	for _, t := range totals {
		breakdown := summary.Categories[t.Category]
		switch t.Type {
		case domain.TransactionTypeIncome:
			summary.TotalIncome += t.Total
			breakdown.Income = t.Total
		case domain.TransactionTypeExpense:
			summary.TotalExpenses += t.Total
			breakdown.Expense = t.Total
		}
		summary.Categories[t.Category] = breakdown
	}
	summary.NetBalance = summary.TotalIncome - summary.TotalExpenses

	return summary, nil
}

// evaluateBudgetAlert publishes a threshold event when this expense pushed
// the category's month-to-date spend across 80% or 100% of its budget.
// Alerts are advisory; failures here never fail the request.
func (s *TransactionService) evaluateBudgetAlert(ctx context.Context, tx *domain.Transaction) {
	if s.dispatcher == nil {
		return
	}

	budget, err := s.budgets.GetByCategory(ctx, tx.UserID, tx.Category)
	if err != nil {
		return
	}
	if budget.Amount <= 0 {
		return
	}

	from, to := monthRange(tx.Date.Year(), tx.Date.Month())
	spent, err := s.transactions.ExpenseTotal(ctx, tx.UserID, tx.Category, from, to)
	if err != nil {
		return
	}

	after := spent / budget.Amount * 100
	before := (spent - tx.Amount) / budget.Amount * 100

	var level events.AlertLevel
	switch {
	case before < 100 && after >= 100:
		level = events.AlertLevelExceeded
	case before < 80 && after >= 80:
		level = events.AlertLevelWarning
	default:
		return
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventBudgetThresholdCrossed,
		UserID:    tx.UserID,
		Timestamp: time.Now(),
		Payload: events.BudgetThresholdPayload{
			Category:     tx.Category,
			BudgetAmount: budget.Amount,
			Spent:        spent,
			Percentage:   after,
			Level:        level,
			Month:        int(tx.Date.Month()),
			Year:         tx.Date.Year(),
		},
	})
}

func validateTransactionInput(input TransactionInput) error {
	if !input.Type.Valid() {
		return apperrors.NewValidationError("type must be income or expense", nil)
	}
	if strings.TrimSpace(input.Category) == "" {
		return apperrors.NewValidationError("category required", nil)
	}
	if input.Amount <= 0 {
		return apperrors.NewValidationError("amount must be greater than zero", nil)
	}
	if input.Date.IsZero() {
		return apperrors.NewValidationError("date required", nil)
	}
	return nil
}

// monthRange returns the [first day, first day of next month) window for
// the given month in UTC.
func monthRange(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
