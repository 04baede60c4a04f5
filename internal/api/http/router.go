package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-exchange/internal/api/http/handlers"
	"github.com/spec-kit/ticket-exchange/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Admin          *handlers.AdminHandler
	Events         *handlers.EventsHandler
	Tickets        *handlers.TicketsHandler
	Market         *handlers.MarketHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/admin/login", cfg.Admin.Login)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)
	admin.Post("/registry/batch", cfg.Admin.ApplyBatch)
	admin.Post("/registry/transfer", cfg.Admin.TransferAdmin)
	admin.Get("/registry/modules", cfg.Admin.ListModules)
	admin.Get("/registry/modules/:name/operations", cfg.Admin.ModuleOperations)
	admin.Get("/registry/operations/:op", cfg.Admin.ResolveOperation)
	admin.Get("/audit/:event_id", cfg.Admin.ListAudit)

	event := app.Group("/event")
	event.Post("/", cfg.Events.Initialize)
	event.Post("/tiers", cfg.Events.AddTier)
	event.Put("/tiers/:tier", cfg.Events.UpdateTier)
	event.Post("/cancel", cfg.Events.Cancel)
	event.Post("/complete", cfg.Events.Complete)
	event.Post("/clear", cfg.Events.ClearTiers)

	tickets := app.Group("/tickets")
	tickets.Post("/purchase", cfg.Tickets.Purchase)
	tickets.Post("/withdraw", cfg.Tickets.Withdraw)
	tickets.Post("/refund-sweep", cfg.Tickets.Sweep)
	tickets.Post("/collect-fees", cfg.Tickets.CollectFees)
	tickets.Post("/scan-batch", cfg.Staff.ScanBatch)
	tickets.Post("/:token_id/refund", cfg.Tickets.Refund)
	tickets.Post("/:token_id/scan", cfg.Staff.Scan)

	market := app.Group("/market")
	market.Post("/listings", cfg.Market.List)
	market.Post("/listings/:token_id/purchase", cfg.Market.Buy)
	market.Delete("/listings/:token_id", cfg.Market.Cancel)

	staff := app.Group("/staff")
	staff.Post("/roles", cfg.Staff.AssignRole)
	staff.Delete("/roles/:staff", cfg.Staff.RemoveRole)
	staff.Post("/scanners", cfg.Staff.AddLegacy)
	staff.Delete("/scanners/:staff", cfg.Staff.RemoveLegacy)
}
