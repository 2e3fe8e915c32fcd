package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/budget-planner/internal/api/http/handlers"
	"github.com/spec-kit/budget-planner/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Info           *handlers.InfoHandler
	Auth           *handlers.AuthHandler
	Transactions   *handlers.TransactionsHandler
	Budgets        *handlers.BudgetsHandler
	Chat           *handlers.ChatHandler
	AuthMiddleware *auth.AuthMiddleware
	Gate           *auth.Gate
}

// RegisterRoutes wires HTTP routes. Every authenticated data route passes
// the travel clearance gate; settings routes are restricted to normal-mode
// sessions instead, since a session locked out by its own travel mode must
// still be able to turn it off.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	// Public surface; each handler consults the global lockout predicate.
	api.Get("/", cfg.Info.Root)
	api.Post("/register", cfg.Auth.Register)
	api.Post("/login", cfg.Auth.Login)
	api.Post("/panic-login", cfg.Auth.PanicLogin)

	protected := api.Group("", cfg.AuthMiddleware.Handle)

	settings := protected.Group("", auth.RequireNormalMode)
	settings.Post("/travel-mode", cfg.Auth.UpdateTravelMode)
	settings.Post("/change-password", cfg.Auth.ChangePassword)
	settings.Put("/profile", cfg.Auth.UpdateProfile)

	gated := protected.Group("", cfg.Gate.RequireTravelClearance)
	gated.Get("/me", cfg.Auth.Me)

	gated.Get("/transactions", cfg.Transactions.List)
	gated.Post("/transactions", cfg.Transactions.Create)
	gated.Get("/transactions/summary/monthly", cfg.Transactions.MonthlySummary)
	gated.Get("/transactions/:id", cfg.Transactions.Get)
	gated.Put("/transactions/:id", cfg.Transactions.Update)
	gated.Delete("/transactions/:id", cfg.Transactions.Delete)

	gated.Get("/budgets", cfg.Budgets.List)
	gated.Post("/budgets", cfg.Budgets.Create)
	gated.Get("/budgets/status/summary", cfg.Budgets.StatusSummary)
	gated.Get("/budgets/:category", cfg.Budgets.Get)
	gated.Put("/budgets/:category", cfg.Budgets.Upsert)
	gated.Delete("/budgets/:category", cfg.Budgets.Delete)

	gated.Post("/chat", cfg.Chat.Chat)
	gated.Get("/sessions", cfg.Chat.ListSessions)
	gated.Get("/sessions/:id/messages", cfg.Chat.History)
	gated.Delete("/sessions/:id", cfg.Chat.DeleteSession)
}
