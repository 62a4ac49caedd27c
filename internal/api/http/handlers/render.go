package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/auth"
)

// bindView merges page data with the principal and any pending flash
// notices so every template can show them.
func bindView(c *fiber.Ctx, sessions *auth.SessionManager, data fiber.Map) fiber.Map {
	bind := fiber.Map{}
	for key, value := range data {
		bind[key] = value
	}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		bind["Principal"] = principal
	}
	bind["Flashes"] = sessions.ConsumeFlashes(c.Context(), auth.SessionIDFromContext(c))
	return bind
}

// flashRedirect queues a notice and redirects, the page surface's standard
// way of reporting an outcome.
func flashRedirect(c *fiber.Ctx, sessions *auth.SessionManager, category, message, location string) error {
	sessions.Flash(c.Context(), auth.SessionIDFromContext(c), category, message)
	return c.Redirect(location, fiber.StatusSeeOther)
}
