package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sbhdesk/complaint-engine/internal/api/http/handlers"
	"github.com/sbhdesk/complaint-engine/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Performance    *handlers.PerformanceHandler
	Sweeps         *handlers.SweepHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Get("/dashboard", cfg.Tickets.Dashboard)
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/transition", cfg.Tickets.Transition)
	tickets.Post("/:id/boost", cfg.Tickets.Boost)

	performance := app.Group("/performance", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	performance.Get("/me", cfg.Performance.Me)
	performance.Get("/:username", cfg.Performance.Get)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdministrative())
	admin.Post("/sweeps/delay", cfg.Sweeps.RunDelay)
	admin.Post("/sweeps/reminder", cfg.Sweeps.RunReminder)
	admin.Post("/performance/:username/recompute", cfg.Performance.Recompute)
}
