package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Organizations  *handlers.OrganizationsHandler
	Users          *handlers.UsersHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Resource-level authorization happens in
// the services; the role guards only short-circuit staff-only endpoints.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireActor())

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Put("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Post("/:id/comments", cfg.Comments.CreateComment)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)

	orgs := api.Group("/organizations")
	orgs.Post("/", cfg.Organizations.CreateOrganization)
	orgs.Get("/", cfg.Organizations.ListOrganizations)
	orgs.Get("/:id", cfg.Organizations.GetOrganization)
	orgs.Patch("/:id", cfg.Organizations.UpdateOrganization)

	users := api.Group("/users")
	users.Get("/me", cfg.Users.Me)
	users.Get("/", auth.RequireRole(domain.RolePlatformAdmin, domain.RoleOrgAdmin), cfg.Users.ListUsers)
	users.Get("/technicians", auth.RequireRole(domain.RolePlatformAdmin, domain.RoleOrgAdmin, domain.RoleTechnician), cfg.Users.ListTechnicians)
	users.Put("/:id/role", auth.RequireRole(domain.RolePlatformAdmin, domain.RoleOrgAdmin), cfg.Users.UpdateRole)

	api.Post("/uploads", cfg.Uploads.CreateUploadURL)
}
