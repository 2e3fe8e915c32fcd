package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBudgetThresholdCrossed EventType = "budget_threshold_crossed"
	EventTravelModeChanged      EventType = "travel_mode_changed"
)

// AlertLevel indicates which budget threshold was crossed.
type AlertLevel string

const (
	AlertLevelWarning  AlertLevel = "warning"  // spend reached 80% of budget
	AlertLevelExceeded AlertLevel = "exceeded" // spend reached 100% of budget
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// BudgetThresholdPayload describes a spend crossing a budget threshold.
type BudgetThresholdPayload struct {
	Category     string     `json:"category"`
	BudgetAmount float64    `json:"budget_amount"`
	Spent        float64    `json:"spent"`
	Percentage   float64    `json:"percentage"`
	Level        AlertLevel `json:"level"`
	Month        int        `json:"month"`
	Year         int        `json:"year"`
}

// TravelModeChangedPayload notes a travel-mode toggle. It carries no
// credential material.
type TravelModeChangedPayload struct {
	Enabled bool `json:"enabled"`
}
