package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
)

// AuthHandler serves login, logout and the root redirect.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Home handles GET /: dashboard when logged in, login otherwise.
func (h *AuthHandler) Home(c *fiber.Ctx) error {
	if cookie := c.Cookies(auth.CookieName); cookie != "" {
		if _, _, err := h.auth.Sessions().Resolve(c.Context(), cookie); err == nil {
			return c.Redirect("/dashboard", fiber.StatusSeeOther)
		}
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"Title": "Login"}, "layouts/main")
}

// Login handles POST /login. Every failure renders the same generic error.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Render("login", fiber.Map{"Title": "Login", "Error": "Invalid email or password."}, "layouts/main")
	}

	principal, cookie, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return c.Render("login", fiber.Map{"Title": "Login", "Error": "Invalid email or password."}, "layouts/main")
	}

	auth.SetSessionCookie(c, cookie, h.auth.Sessions().TTL())
	if sessionID, parseErr := h.sessionID(c, cookie); parseErr == nil {
		h.auth.Sessions().Flash(c.Context(), sessionID, "success", fmt.Sprintf("Welcome, %s!", principal.Name))
	}
	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

// Logout handles GET /logout: clears the session unconditionally.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if cookie := c.Cookies(auth.CookieName); cookie != "" {
		_ = h.auth.Logout(c.Context(), cookie)
	}
	auth.ClearSessionCookie(c)
	return c.Redirect("/login", fiber.StatusSeeOther)
}

func (h *AuthHandler) sessionID(c *fiber.Ctx, cookie string) (string, error) {
	sessionID, _, err := h.auth.Sessions().Resolve(c.Context(), cookie)
	return sessionID, err
}
