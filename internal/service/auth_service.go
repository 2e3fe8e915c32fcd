package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/budget-planner/internal/auth"
	"github.com/spec-kit/budget-planner/internal/config"
	"github.com/spec-kit/budget-planner/internal/domain"
	"github.com/spec-kit/budget-planner/internal/events"
	"github.com/spec-kit/budget-planner/internal/repository"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

const passwordRuleMessage = "password must be at least 6 characters and contain both letters and numbers"

// AuthService coordinates registration and the dual-credential login flows.
type AuthService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// RegisterInput describes the registration payload.
type RegisterInput struct {
	Username        string
	Email           string
	FullName        *string
	Password        string
	ConfirmPassword string
}

// Register creates a new account and immediately issues a normal session.
// While any account in the system has travel mode enabled, registration
// answers the indistinguishable 404 regardless of payload.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	locked, err := s.users.AnyTravelModeEnabled(ctx)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if locked {
		return nil, "", time.Time{}, apperrors.NewNotFound()
	}

	if input.Password != input.ConfirmPassword {
		return nil, "", time.Time{}, apperrors.NewValidationError("passwords do not match", nil)
	}
	if !auth.ValidatePasswordStrength(input.Password) {
		return nil, "", time.Time{}, apperrors.NewValidationError(passwordRuleMessage, nil)
	}

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if taken {
		return nil, "", time.Time{}, apperrors.NewValidationError("username or email already registered", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.Username, user.ID, false)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Login authenticates primary credentials. A correct login against an
// account whose travel mode is armed fails with the same 404 a missing
// endpoint produces; it never reveals that the account is restricted.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("incorrect username or password")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("incorrect username or password")
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account deactivated")
	}
	if user.TravelMode.Enabled {
		return nil, "", time.Time{}, apperrors.NewNotFound()
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.Username, user.ID, false)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// PanicLogin authenticates duress credentials. It works whether or not
// travel mode is currently enabled, and every failure path returns one
// generic message so the endpoint cannot be used as an oracle for which
// panic usernames exist or are configured.
func (s *AuthService) PanicLogin(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	fail := func() (*domain.User, string, time.Time, error) {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("incorrect credentials")
	}

	user, err := s.users.GetByPanicUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fail()
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if user.TravelMode.PanicPasswordHash == nil {
		return fail()
	}
	if err := auth.ComparePassword(*user.TravelMode.PanicPasswordHash, password); err != nil {
		return fail()
	}
	if !user.Active {
		return fail()
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.Username, user.ID, true)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// TravelModeInput describes a travel-mode settings update.
type TravelModeInput struct {
	Enabled       bool
	HideStats     bool
	PanicUsername *string
	PanicPassword *string
}

// UpdateTravelMode persists travel-mode settings for the caller. Panic
// credentials, when supplied, are validated, hashed and written together
// with the flags in one update. Enabling travel mode without ever setting
// panic credentials is legal; the caller strands themselves.
func (s *AuthService) UpdateTravelMode(ctx context.Context, userID string, input TravelModeInput) error {
	patch := domain.TravelModePatch{
		Enabled:   input.Enabled,
		HideStats: input.HideStats,
	}

	if input.PanicUsername != nil && input.PanicPassword != nil &&
		*input.PanicUsername != "" && *input.PanicPassword != "" {
		if !auth.ValidatePasswordStrength(*input.PanicPassword) {
			return apperrors.NewValidationError("panic "+passwordRuleMessage, nil)
		}

		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if user.Username == *input.PanicUsername {
			return apperrors.NewValidationError("panic username must be different from normal username", nil)
		}

		hash, err := auth.HashPassword(*input.PanicPassword, s.bcryptCost)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		patch.PanicUsername = input.PanicUsername
		patch.PanicPasswordHash = &hash
	}

	if err := s.users.UpdateTravelMode(ctx, userID, patch); err != nil {
		return apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTravelModeChanged,
			UserID:    userID,
			Timestamp: time.Now(),
			Payload:   events.TravelModeChangedPayload{Enabled: input.Enabled},
		})
	}
	return nil
}

// ChangePassword verifies the current password before updating to the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return apperrors.NewValidationError("new passwords do not match", nil)
	}
	if !auth.ValidatePasswordStrength(newPassword) {
		return apperrors.NewValidationError("new "+passwordRuleMessage, nil)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ProfileInput describes a profile update.
type ProfileInput struct {
	FullName *string
	Email    *string
}

// UpdateProfile applies partial profile changes.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.FullName != nil {
		user.FullName = input.FullName
	}
	if input.Email != nil && *input.Email != "" {
		user.Email = *input.Email
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
