package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/change-control/internal/api/http/handlers"
	"github.com/spec-kit/change-control/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Tickets        *handlers.TicketsHandler
	Deployments    *handlers.DeploymentsHandler
	Reference      *handlers.ReferenceHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Metrics)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.SubmitTicket)
	tickets.Get("/grid", cfg.Tickets.Grid)
	tickets.Delete("/:id", cfg.Tickets.RemoveTicket)
	tickets.Get("/:id/deployments", cfg.Deployments.History)
	tickets.Post("/:id/deployments", cfg.Deployments.AddHistory)

	api.Get("/deployments/statuses", cfg.Deployments.Statuses)
	api.Get("/groups", cfg.Reference.Groups)
	api.Get("/sql-instances", cfg.Reference.SqlInstances)
}
