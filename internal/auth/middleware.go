package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const (
	principalKey = "auth_principal"
	sessionIDKey = "auth_session_id"
)

// SessionMiddleware loads the principal for protected routes and redirects
// anonymous callers to the login page.
type SessionMiddleware struct {
	sessions *SessionManager
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions *SessionManager) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	cookie := c.Cookies(CookieName)
	if cookie == "" {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	sessionID, principal, err := m.sessions.Resolve(c.Context(), cookie)
	if err != nil {
		ClearSessionCookie(c)
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	c.Locals(principalKey, principal)
	c.Locals(sessionIDKey, sessionID)
	return c.Next()
}

// RequireRole gates a route group to the given roles. Denied principals are
// sent back to the dashboard with a notice, matching the page surface's
// redirect semantics.
func RequireRole(sessions *SessionManager, allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			sessions.Flash(c.Context(), SessionIDFromContext(c), "danger", "You do not have permission to access that page.")
			return c.Redirect("/dashboard", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// SessionIDFromContext retrieves the current session id for flash storage.
func SessionIDFromContext(c *fiber.Ctx) string {
	if sid, ok := c.Locals(sessionIDKey).(string); ok {
		return sid
	}
	return ""
}

// SetSessionCookie writes the session cookie after login.
func SetSessionCookie(c *fiber.Ctx, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    value,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie at logout.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
