package domain

import "time"

// TravelModeSettings holds the duress-access configuration for a user.
// PanicUsername and PanicPasswordHash are always written together in a
// single update; one is never present without the other.
type TravelModeSettings struct {
	Enabled           bool
	HideStats         bool
	PanicUsername     *string
	PanicPasswordHash *string
}

// User is the domain model for account holders.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     *string
	PasswordHash string
	Active       bool
	TravelMode   TravelModeSettings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TravelModePatch captures a travel-mode settings update. The credential
// fields are applied only when both are present.
type TravelModePatch struct {
	Enabled           bool
	HideStats         bool
	PanicUsername     *string
	PanicPasswordHash *string
}
