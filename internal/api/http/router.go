package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/workorder-service/internal/api/http/handlers"
	"github.com/spec-kit/workorder-service/internal/auth"
	"github.com/spec-kit/workorder-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	WorkOrders     *handlers.WorkOrdersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(observability.MetricsHandler()))

	orders := app.Group("/work-orders", cfg.AuthMiddleware.Handle)
	orders.Post("", cfg.WorkOrders.CreateWorkOrder)
	orders.Get("", cfg.WorkOrders.ListWorkOrders)
	orders.Get("/:id", cfg.WorkOrders.GetWorkOrder)
	orders.Patch("/:id", cfg.WorkOrders.UpdateWorkOrder)
	orders.Get("/:id/history", cfg.WorkOrders.ListHistory)
}
