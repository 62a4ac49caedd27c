package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Tickets  *handlers.TicketsHandler
	Users    *handlers.UsersHandler
	Session  *auth.SessionMiddleware
	Sessions *auth.SessionManager
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/", cfg.Auth.Home)
	app.Get("/login", cfg.Auth.LoginPage)
	app.Post("/login", cfg.Auth.Login)
	app.Get("/logout", cfg.Auth.Logout)

	authed := app.Group("", cfg.Session.Handle)
	authed.Get("/dashboard", cfg.Tickets.Dashboard)
	authed.Get("/tickets", cfg.Tickets.List)
	authed.Get("/tickets/create", cfg.Tickets.CreatePage)
	authed.Post("/tickets/create", cfg.Tickets.Create)
	authed.Get("/tickets/:id", cfg.Tickets.Detail)
	authed.Post("/tickets/:id/comment", cfg.Tickets.Comment)
	authed.Post("/tickets/:id/update", cfg.Tickets.Update)
	authed.Post("/tickets/:id/ajax_update", cfg.Tickets.AjaxUpdate)

	admin := authed.Group("/users", auth.RequireRole(cfg.Sessions, domain.RoleAdmin))
	admin.Get("/", cfg.Users.List)
	admin.Get("/create", cfg.Users.CreatePage)
	admin.Post("/create", cfg.Users.Create)
	admin.Post("/:id/role", cfg.Users.ChangeRole)

	// unmatched routes
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("404", fiber.Map{"Title": "Not found"}, "layouts/main")
	})
}
