package dto

import (
	"time"

	"github.com/spec-kit/budget-planner/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	FullName        *string `json:"full_name,omitempty"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
}

// LoginRequest payload for normal and panic login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TravelModeRequest payload for travel-mode settings updates.
type TravelModeRequest struct {
	TravelModeEnabled bool    `json:"travel_mode_enabled"`
	HideStats         bool    `json:"hide_stats"`
	PanicUsername     *string `json:"panic_username,omitempty"`
	PanicPassword     *string `json:"panic_password,omitempty"`
}

// ChangePasswordRequest payload for password rotation.
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

// ProfileRequest payload for profile updates.
type ProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// TravelModeView is the settings block returned with a user. The panic
// password hash is never serialized.
type TravelModeView struct {
	TravelModeEnabled bool    `json:"travel_mode_enabled"`
	HideStats         bool    `json:"hide_stats"`
	PanicUsername     *string `json:"panic_username,omitempty"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID         string         `json:"id"`
	Username   string         `json:"username"`
	Email      string         `json:"email"`
	FullName   *string        `json:"full_name,omitempty"`
	Active     bool           `json:"is_active"`
	TravelMode TravelModeView `json:"settings"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewUserResponse maps the domain model to its public view.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Active:   user.Active,
		TravelMode: TravelModeView{
			TravelModeEnabled: user.TravelMode.Enabled,
			HideStats:         user.TravelMode.HideStats,
			PanicUsername:     user.TravelMode.PanicUsername,
		},
		CreatedAt: user.CreatedAt,
	}
}
