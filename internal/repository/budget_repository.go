package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/budget-planner/internal/domain"
)

// BudgetRepository defines persistence access for budgets. Every operation
// is scoped to the owning user id; (user_id, category) is unique.
type BudgetRepository interface {
	Create(ctx context.Context, budget *domain.Budget) error
	UpdateAmount(ctx context.Context, userID, category string, amount float64) error
	Delete(ctx context.Context, userID, category string) error
	GetByCategory(ctx context.Context, userID, category string) (*domain.Budget, error)
	List(ctx context.Context, userID string) ([]domain.Budget, error)
}

type budgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository returns a Postgres-backed implementation.
func NewBudgetRepository(pool *pgxpool.Pool) BudgetRepository {
	return &budgetRepository{pool: pool}
}

func (r *budgetRepository) Create(ctx context.Context, budget *domain.Budget) error {
	const query = `
        INSERT INTO budgets (user_id, category, amount)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		budget.UserID,
		budget.Category,
		budget.Amount,
	).Scan(&budget.ID, &budget.CreatedAt, &budget.UpdatedAt)
}

func (r *budgetRepository) UpdateAmount(ctx context.Context, userID, category string, amount float64) error {
	const query = `
        UPDATE budgets SET amount=$1, updated_at=NOW()
        WHERE user_id=$2 AND category=$3`

	cmd, err := r.pool.Exec(ctx, query, amount, userID, category)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *budgetRepository) Delete(ctx context.Context, userID, category string) error {
	const query = `DELETE FROM budgets WHERE user_id=$1 AND category=$2`

	cmd, err := r.pool.Exec(ctx, query, userID, category)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *budgetRepository) GetByCategory(ctx context.Context, userID, category string) (*domain.Budget, error) {
	const query = `
        SELECT id, user_id, category, amount, created_at, updated_at
        FROM budgets WHERE user_id=$1 AND category=$2`

	var budget domain.Budget
	if err := r.pool.QueryRow(ctx, query, userID, category).Scan(
		&budget.ID,
		&budget.UserID,
		&budget.Category,
		&budget.Amount,
		&budget.CreatedAt,
		&budget.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) List(ctx context.Context, userID string) ([]domain.Budget, error) {
	const query = `
        SELECT id, user_id, category, amount, created_at, updated_at
        FROM budgets WHERE user_id=$1 ORDER BY category`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		var budget domain.Budget
		if err := rows.Scan(
			&budget.ID,
			&budget.UserID,
			&budget.Category,
			&budget.Amount,
			&budget.CreatedAt,
			&budget.UpdatedAt,
		); err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}
