package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/budget-planner/internal/domain"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

// stubUserRepo is the minimal store double the gate and middleware need.
type stubUserRepo struct {
	users map[string]*domain.User
}

func (s *stubUserRepo) Create(context.Context, *domain.User) error { return nil }
func (s *stubUserRepo) Update(context.Context, *domain.User) error { return nil }

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (s *stubUserRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) GetByPanicUsername(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *stubUserRepo) UpdateTravelMode(_ context.Context, id string, patch domain.TravelModePatch) error {
	user, ok := s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.TravelMode.Enabled = patch.Enabled
	user.TravelMode.HideStats = patch.HideStats
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(context.Context, string, string) error { return nil }

func (s *stubUserRepo) AnyTravelModeEnabled(context.Context) (bool, error) {
	for _, user := range s.users {
		if user.TravelMode.Enabled {
			return true, nil
		}
	}
	return false, nil
}

func newStubRepo(users ...*domain.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func activeUser(id string) *domain.User {
	return &domain.User{ID: id, Username: id, Active: true}
}

// newGateTestApp builds a fiber app with the real auth middleware and gate
// wired the way the server wires them.
func newGateTestApp(repo *stubUserRepo, tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{
				"error": fiber.Map{"code": domainErr.Code, "message": domainErr.Message},
			})
		},
	})

	gate := NewGate(repo)
	middleware := NewAuthMiddleware(tm, repo)

	protected := app.Group("/api", middleware.Handle)
	protected.Post("/travel-mode", RequireNormalMode, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	gated := protected.Group("", gate.RequireTravelClearance)
	gated.Get("/transactions", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"hidden": TravelModeFromContext(c)})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGateBlocksNormalSessionWhenTravelModeEnabled(t *testing.T) {
	user := activeUser("user-1")
	repo := newStubRepo(user)
	tm := NewTokenManager("secret", 30)
	app := newGateTestApp(repo, tm)

	token, _, err := tm.GenerateToken("user-1", "user-1", false)
	require.NoError(t, err)

	resp := doRequest(t, app, fiber.MethodGet, "/api/transactions", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Enabling travel mode must take effect on the very next request of
	// the same session; the token is unchanged.
	user.TravelMode.Enabled = true
	resp = doRequest(t, app, fiber.MethodGet, "/api/transactions", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	user.TravelMode.Enabled = false
	resp = doRequest(t, app, fiber.MethodGet, "/api/transactions", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGateAdmitsPanicSessionDuringTravelMode(t *testing.T) {
	user := activeUser("user-1")
	user.TravelMode.Enabled = true
	repo := newStubRepo(user)
	tm := NewTokenManager("secret", 30)
	app := newGateTestApp(repo, tm)

	token, _, err := tm.GenerateToken("user-1", "user-1", true)
	require.NoError(t, err)

	resp := doRequest(t, app, fiber.MethodGet, "/api/transactions", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireNormalModeHidesSettingsFromPanicSessions(t *testing.T) {
	user := activeUser("user-1")
	repo := newStubRepo(user)
	tm := NewTokenManager("secret", 30)
	app := newGateTestApp(repo, tm)

	panicToken, _, err := tm.GenerateToken("user-1", "user-1", true)
	require.NoError(t, err)
	resp := doRequest(t, app, fiber.MethodPost, "/api/travel-mode", panicToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	normalToken, _, err := tm.GenerateToken("user-1", "user-1", false)
	require.NoError(t, err)
	resp = doRequest(t, app, fiber.MethodPost, "/api/travel-mode", normalToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTravelModeEndpointReachableWhileEnabled(t *testing.T) {
	// A normal session issued before the toggle must still reach the
	// settings route, or enabling travel mode would be irreversible.
	user := activeUser("user-1")
	user.TravelMode.Enabled = true
	repo := newStubRepo(user)
	tm := NewTokenManager("secret", 30)
	app := newGateTestApp(repo, tm)

	token, _, err := tm.GenerateToken("user-1", "user-1", false)
	require.NoError(t, err)
	resp := doRequest(t, app, fiber.MethodPost, "/api/travel-mode", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	repo := newStubRepo(activeUser("user-1"))
	inactive := activeUser("user-2")
	inactive.Active = false
	repo.users[inactive.ID] = inactive

	tm := NewTokenManager("secret", 30)
	app := newGateTestApp(repo, tm)

	t.Run("missing header", func(t *testing.T) {
		resp := doRequest(t, app, fiber.MethodGet, "/api/transactions", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := doRequest(t, app, fiber.MethodGet, "/api/transactions", "garbage")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("deleted user", func(t *testing.T) {
		token, _, err := tm.GenerateToken("ghost", "ghost", false)
		require.NoError(t, err)
		resp := doRequest(t, app, fiber.MethodGet, "/api/transactions", token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("inactive user", func(t *testing.T) {
		token, _, err := tm.GenerateToken("user-2", "user-2", false)
		require.NoError(t, err)
		resp := doRequest(t, app, fiber.MethodGet, "/api/transactions", token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCheckPublicAccess(t *testing.T) {
	user := activeUser("user-1")
	repo := newStubRepo(user)
	gate := NewGate(repo)

	require.NoError(t, gate.CheckPublicAccess(context.Background()))

	user.TravelMode.Enabled = true
	err := gate.CheckPublicAccess(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.ToDomainError(err).HTTPStatus)

	// One user's toggle locks the whole public surface; another user's
	// state is irrelevant.
	user.TravelMode.Enabled = false
	require.NoError(t, gate.CheckPublicAccess(context.Background()))
}
