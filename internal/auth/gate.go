package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/budget-planner/internal/repository"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

const travelModeKey = "travel_mode_enabled"

// Gate decides, per request, whether travel-mode policy allows the caller
// to proceed. Blocked requests fail with the same 404 a missing resource
// produces, so an observer cannot tell a policy block from absence.
type Gate struct {
	users repository.UserRepository
}

// NewGate constructs the gate.
func NewGate(users repository.UserRepository) *Gate {
	return &Gate{users: users}
}

// CheckTravelRestriction re-reads the caller's current travel-mode flag
// from the store and rejects normal-mode sessions while it is enabled. The
// flag frozen into the token at login time is deliberately ignored: a
// toggle must take effect on the very next request, mid-session included.
// Returns the resolved enabled value for callers that apply hide_stats.
func (g *Gate) CheckTravelRestriction(ctx context.Context, principal *Principal) (bool, error) {
	user, err := g.users.GetByID(ctx, principal.User.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.NewUnauthorized("user not found")
		}
		return false, apperrors.MapError(err)
	}

	if user.TravelMode.Enabled && !principal.PanicMode {
		return false, apperrors.NewNotFound()
	}
	return user.TravelMode.Enabled, nil
}

// CheckPublicAccess is the global lockout predicate for unauthenticated
// routes. While any account anywhere has travel mode enabled, every public
// surface answers 404. The store is queried on every call; caching would
// delay a toggle becoming visible.
func (g *Gate) CheckPublicAccess(ctx context.Context) error {
	enabled, err := g.users.AnyTravelModeEnabled(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	if enabled {
		return apperrors.NewNotFound()
	}
	return nil
}

// RequireTravelClearance is the route-group form of CheckTravelRestriction.
// It stores the resolved enabled flag in locals for handlers that consult
// hide_stats.
func (g *Gate) RequireTravelClearance(c *fiber.Ctx) error {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	enabled, err := g.CheckTravelRestriction(c.Context(), principal)
	if err != nil {
		return err
	}
	c.Locals(travelModeKey, enabled)
	return c.Next()
}

// RequireNormalMode rejects panic-mode sessions with the indistinguishable
// 404. Settings routes use it so a duress session can neither rotate the
// real credentials nor observe that such routes exist.
func RequireNormalMode(c *fiber.Ctx) error {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if principal.PanicMode {
		return apperrors.NewNotFound()
	}
	return c.Next()
}

// TravelModeFromContext reports the enabled flag resolved by
// RequireTravelClearance for the current request.
func TravelModeFromContext(c *fiber.Ctx) bool {
	val, ok := c.Locals(travelModeKey).(bool)
	return ok && val
}
