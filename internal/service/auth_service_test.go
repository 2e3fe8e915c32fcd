package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/budget-planner/internal/auth"
	"github.com/spec-kit/budget-planner/internal/config"
	"github.com/spec-kit/budget-planner/internal/domain"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

func newTestAuthService(users *fakeUserRepo) *AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 30,
			BcryptCost:            bcrypt.MinCost,
		},
	}
	return NewAuthService(cfg, AuthDependencies{
		UserRepo:   users,
		Dispatcher: &recordingDispatcher{},
	})
}

func seedUser(t *testing.T, users *fakeUserRepo, username, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Active:       true,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).HTTPStatus
}

func TestRegisterIssuesNormalToken(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)

	user, token, _, err := svc.Register(context.Background(), RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Subject)
	assert.False(t, claims.PanicMode)
}

func TestRegisterValidation(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	seedUser(t, users, "taken", "secret1")

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"mismatched passwords", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "secret1", ConfirmPassword: "secret2"}},
		{"too short", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "a1", ConfirmPassword: "a1"}},
		{"no digits", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "abcdef", ConfirmPassword: "abcdef"}},
		{"no letters", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "123456", ConfirmPassword: "123456"}},
		{"duplicate username", RegisterInput{Username: "taken", Email: "new@example.com", Password: "secret1", ConfirmPassword: "secret1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := svc.Register(context.Background(), tc.input)
			assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
		})
	}
}

func TestRegisterBlockedWhileAnyTravelModeEnabled(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)

	other := seedUser(t, users, "other", "secret1")
	require.NoError(t, users.UpdateTravelMode(context.Background(), other.ID, domain.TravelModePatch{Enabled: true}))

	_, _, _, err := svc.Register(context.Background(), RegisterInput{
		Username:        "newcomer",
		Email:           "newcomer@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	seedUser(t, users, "alice", "secret1")

	t.Run("success", func(t *testing.T) {
		user, token, _, err := svc.Login(context.Background(), "alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)

		claims, err := svc.TokenManager().ParseToken(token)
		require.NoError(t, err)
		assert.False(t, claims.PanicMode)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, _, _, err := svc.Login(context.Background(), "nobody", "secret1")
		assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, _, err := svc.Login(context.Background(), "alice", "wrong1")
		assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
	})
}

func TestLoginWithTravelModeEnabledAnswersNotFound(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	alice := seedUser(t, users, "alice", "secret1")
	require.NoError(t, users.UpdateTravelMode(context.Background(), alice.ID, domain.TravelModePatch{Enabled: true}))

	// Correct credentials must fail exactly like a missing endpoint, not
	// like a wrong password.
	_, _, _, err := svc.Login(context.Background(), "alice", "secret1")
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestPanicLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	alice := seedUser(t, users, "alice", "secret1")

	require.NoError(t, svc.UpdateTravelMode(context.Background(), alice.ID, TravelModeInput{
		Enabled:       true,
		PanicUsername: strPtr("alice_safe"),
		PanicPassword: strPtr("panic1"),
	}))

	t.Run("works while travel mode enabled", func(t *testing.T) {
		user, token, _, err := svc.PanicLogin(context.Background(), "alice_safe", "panic1")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)

		claims, err := svc.TokenManager().ParseToken(token)
		require.NoError(t, err)
		assert.True(t, claims.PanicMode)
		assert.Equal(t, "alice", claims.Subject)
	})

	t.Run("works while travel mode disabled", func(t *testing.T) {
		require.NoError(t, svc.UpdateTravelMode(context.Background(), alice.ID, TravelModeInput{Enabled: false}))
		_, token, _, err := svc.PanicLogin(context.Background(), "alice_safe", "panic1")
		require.NoError(t, err)

		claims, err := svc.TokenManager().ParseToken(token)
		require.NoError(t, err)
		assert.True(t, claims.PanicMode)
	})
}

func TestPanicLoginFailuresAreIndistinguishable(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	alice := seedUser(t, users, "alice", "secret1")
	seedUser(t, users, "bob", "secret1")

	require.NoError(t, svc.UpdateTravelMode(context.Background(), alice.ID, TravelModeInput{
		PanicUsername: strPtr("alice_safe"),
		PanicPassword: strPtr("panic1"),
	}))

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown panic username", "nobody_safe", "panic1"},
		{"wrong panic password", "alice_safe", "wrong1"},
		{"normal username not usable", "alice", "secret1"},
		{"user without panic credentials", "bob", "secret1"},
	}

	var messages []string
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := svc.PanicLogin(context.Background(), tc.username, tc.password)
			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, http.StatusUnauthorized, domainErr.HTTPStatus)
			messages = append(messages, domainErr.Message)
		})
	}
	for _, msg := range messages {
		assert.Equal(t, messages[0], msg)
	}
}

func TestUpdateTravelModeRejectsPanicUsernameEqualToOwn(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	alice := seedUser(t, users, "alice", "secret1")

	err := svc.UpdateTravelMode(context.Background(), alice.ID, TravelModeInput{
		Enabled:       true,
		PanicUsername: strPtr("alice"),
		PanicPassword: strPtr("panic1"),
	})
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	// The rejected update must leave no partial state behind.
	stored, getErr := users.GetByID(context.Background(), alice.ID)
	require.NoError(t, getErr)
	assert.False(t, stored.TravelMode.Enabled)
	assert.Nil(t, stored.TravelMode.PanicUsername)
	assert.Nil(t, stored.TravelMode.PanicPasswordHash)
}

func TestUpdateTravelModeRejectsWeakPanicPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	alice := seedUser(t, users, "alice", "secret1")

	err := svc.UpdateTravelMode(context.Background(), alice.ID, TravelModeInput{
		PanicUsername: strPtr("alice_safe"),
		PanicPassword: strPtr("short"),
	})
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestUpdateTravelModeWithoutCredentialsKeepsExisting(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	alice := seedUser(t, users, "alice", "secret1")

	require.NoError(t, svc.UpdateTravelMode(context.Background(), alice.ID, TravelModeInput{
		PanicUsername: strPtr("alice_safe"),
		PanicPassword: strPtr("panic1"),
	}))
	require.NoError(t, svc.UpdateTravelMode(context.Background(), alice.ID, TravelModeInput{Enabled: true, HideStats: true}))

	stored, err := users.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.True(t, stored.TravelMode.Enabled)
	assert.True(t, stored.TravelMode.HideStats)
	require.NotNil(t, stored.TravelMode.PanicUsername)
	assert.Equal(t, "alice_safe", *stored.TravelMode.PanicUsername)
	assert.NotNil(t, stored.TravelMode.PanicPasswordHash)
}

func TestChangePassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	alice := seedUser(t, users, "alice", "secret1")

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), alice.ID, "wrong1", "newpass1", "newpass1")
		assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(context.Background(), alice.ID, "secret1", "newpass1", "newpass1"))
		_, _, _, err := svc.Login(context.Background(), "alice", "newpass1")
		assert.NoError(t, err)
	})
}

func strPtr(s string) *string {
	return &s
}
