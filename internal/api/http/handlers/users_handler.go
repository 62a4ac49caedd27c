package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UsersHandler serves the admin-only account pages.
type UsersHandler struct {
	users    *service.UserService
	sessions *auth.SessionManager
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, sessions *auth.SessionManager) *UsersHandler {
	return &UsersHandler{users: userService, sessions: sessions}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context())
	if err != nil {
		return err
	}
	return c.Render("users_list", bindView(c, h.sessions, fiber.Map{
		"Title":        "Users",
		"Users":        users,
		"AllowedRoles": domain.Roles(),
	}), "layouts/main")
}

// CreatePage handles GET /users/create.
func (h *UsersHandler) CreatePage(c *fiber.Ctx) error {
	return h.renderCreate(c, "")
}

// Create handles POST /users/create.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.UserCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderCreate(c, "Name, email and password are required.")
	}

	input := service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}
	if _, err := h.users.Create(c.Context(), input); err != nil {
		switch {
		case apperrors.IsCode(err, apperrors.CodeValidation):
			return h.renderCreate(c, apperrors.ToDomainError(err).Message)
		case apperrors.IsCode(err, apperrors.CodeConflict):
			return flashRedirect(c, h.sessions, "danger", "Could not create user. Email may already exist.", "/users")
		}
		return err
	}
	return flashRedirect(c, h.sessions, "success", "User created.", "/users")
}

// ChangeRole handles POST /users/:id/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return flashRedirect(c, h.sessions, "danger", "User not found.", "/users")
	}

	var req dto.RoleChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return flashRedirect(c, h.sessions, "danger", "Invalid role.", "/users")
	}

	if err := h.users.ChangeRole(c.Context(), *principal, userID, req.Role); err != nil {
		switch {
		case apperrors.IsCode(err, apperrors.CodeValidation):
			return flashRedirect(c, h.sessions, "danger", "Invalid role.", "/users")
		case apperrors.IsCode(err, apperrors.CodeNotFound):
			return flashRedirect(c, h.sessions, "danger", "User not found.", "/users")
		}
		return err
	}
	return flashRedirect(c, h.sessions, "success", "Role updated.", "/users")
}

func (h *UsersHandler) renderCreate(c *fiber.Ctx, errMsg string) error {
	bind := fiber.Map{
		"Title":        "New user",
		"AllowedRoles": domain.Roles(),
	}
	if errMsg != "" {
		bind["Error"] = errMsg
	}
	return c.Render("user_create", bindView(c, h.sessions, bind), "layouts/main")
}
