package domain

import "time"

// Budget is a per-category monthly spending limit owned by a user.
// A user has at most one budget per category.
type Budget struct {
	ID        string
	UserID    string
	Category  string
	Amount    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
