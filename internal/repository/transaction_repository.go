package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/budget-planner/internal/domain"
)

// TransactionFilter narrows transaction listings. Zero values mean "no
// constraint".
type TransactionFilter struct {
	Type     domain.TransactionType
	Category string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// CategoryTotal is one row of an aggregation grouped by type and category.
type CategoryTotal struct {
	Type     domain.TransactionType
	Category string
	Total    float64
	Count    int
}

// TransactionRepository defines persistence access for transactions. Every
// operation is scoped to the owning user id.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, userID, id string) error
	GetByID(ctx context.Context, userID, id string) (*domain.Transaction, error)
	List(ctx context.Context, userID string, filter TransactionFilter) ([]domain.Transaction, error)
	TotalsByCategory(ctx context.Context, userID string, from, to time.Time) ([]CategoryTotal, error)
	ExpenseTotal(ctx context.Context, userID, category string, from, to time.Time) (float64, error)
}

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a Postgres-backed implementation.
func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepository{pool: pool}
}

const transactionColumns = `
        id, user_id, type, category, amount, description, date, created_at, updated_at`

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// clampListLimit applies the listing bounds: unset or non-positive falls
// back to the default, oversized requests are capped rather than reset.
func clampListLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	const query = `
        INSERT INTO transactions (user_id, type, category, amount, description, date)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		tx.UserID,
		tx.Type,
		tx.Category,
		tx.Amount,
		tx.Description,
		tx.Date,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	const query = `
        UPDATE transactions
        SET type=$1, category=$2, amount=$3, description=$4, date=$5, updated_at=NOW()
        WHERE id=$6 AND user_id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		tx.Type,
		tx.Category,
		tx.Amount,
		tx.Description,
		tx.Date,
		tx.ID,
		tx.UserID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM transactions WHERE id=$1 AND user_id=$2`

	cmd, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE id=$1 AND user_id=$2`

	var tx domain.Transaction
	if err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Category,
		&tx.Amount,
		&tx.Description,
		&tx.Date,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) List(ctx context.Context, userID string, filter TransactionFilter) ([]domain.Transaction, error) {
	conditions := []string{"user_id=$1"}
	args := []any{userID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("date < $%d", len(args)))
	}

	args = append(args, clampListLimit(filter.Limit))

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY created_at DESC LIMIT $%d`,
		transactionColumns, strings.Join(conditions, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Type,
			&tx.Category,
			&tx.Amount,
			&tx.Description,
			&tx.Date,
			&tx.CreatedAt,
			&tx.UpdatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (r *transactionRepository) TotalsByCategory(ctx context.Context, userID string, from, to time.Time) ([]CategoryTotal, error) {
	const query = `
        SELECT type, category, SUM(amount), COUNT(*)
        FROM transactions
        WHERE user_id=$1 AND date >= $2 AND date < $3
        GROUP BY type, category`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var t CategoryTotal
		if err := rows.Scan(&t.Type, &t.Category, &t.Total, &t.Count); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *transactionRepository) ExpenseTotal(ctx context.Context, userID, category string, from, to time.Time) (float64, error) {
	const query = `
        SELECT COALESCE(SUM(amount), 0)
        FROM transactions
        WHERE user_id=$1 AND type='expense' AND category=$2 AND date >= $3 AND date < $4`

	var total float64
	if err := r.pool.QueryRow(ctx, query, userID, category, from, to).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
