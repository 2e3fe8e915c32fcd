package domain

import "time"

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether the value is one of the known types.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is a single income or expense record owned by a user.
type Transaction struct {
	ID          string
	UserID      string
	Type        TransactionType
	Category    string
	Amount      float64
	Description string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
