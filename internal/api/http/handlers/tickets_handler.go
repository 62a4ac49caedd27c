package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler serves the dashboard and every ticket page plus the
// structured in-place edit endpoint.
type TicketsHandler struct {
	tickets  *service.TicketService
	sessions *auth.SessionManager
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, sessions *auth.SessionManager) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, sessions: sessions}
}

// Dashboard handles GET /dashboard.
func (h *TicketsHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.tickets.Dashboard(c.Context())
	if err != nil {
		return err
	}
	return c.Render("dashboard", bindView(c, h.sessions, fiber.Map{
		"Title": "Dashboard",
		"Stats": stats,
	}), "layouts/main")
}

// List handles GET /tickets with optional q/status/priority filters.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	input := service.TicketListInput{
		Search:   c.Query("q"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}
	tickets, err := h.tickets.List(c.Context(), *principal, input)
	if err != nil {
		return err
	}

	return c.Render("tickets_list", bindView(c, h.sessions, fiber.Map{
		"Title":           "Tickets",
		"Tickets":         tickets,
		"Query":           input.Search,
		"StatusFilter":    input.Status,
		"PriorityFilter":  input.Priority,
		"AllowedStatus":   domain.Statuses(),
		"AllowedPriority": domain.Priorities(),
	}), "layouts/main")
}

// CreatePage handles GET /tickets/create.
func (h *TicketsHandler) CreatePage(c *fiber.Ctx) error {
	return h.renderCreate(c, "")
}

// Create handles POST /tickets/create.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	var req dto.TicketCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderCreate(c, "Title and description are required.")
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	if _, err := h.tickets.Create(c.Context(), *principal, input); err != nil {
		if apperrors.IsCode(err, apperrors.CodeValidation) {
			return h.renderCreate(c, apperrors.ToDomainError(err).Message)
		}
		return err
	}
	return flashRedirect(c, h.sessions, "success", "Ticket created.", "/tickets")
}

// Detail handles GET /tickets/:id.
func (h *TicketsHandler) Detail(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return flashRedirect(c, h.sessions, "danger", "Ticket not found.", "/tickets")
	}

	detail, err := h.tickets.Get(c.Context(), *principal, ticketID)
	if err != nil {
		switch {
		case apperrors.IsCode(err, apperrors.CodeNotFound):
			return flashRedirect(c, h.sessions, "danger", "Ticket not found.", "/tickets")
		case apperrors.IsCode(err, apperrors.CodeForbidden):
			return flashRedirect(c, h.sessions, "danger", "You do not have permission to view that ticket.", "/tickets")
		}
		return err
	}

	return c.Render("ticket_detail", bindView(c, h.sessions, fiber.Map{
		"Title":           detail.Ticket.Title,
		"Ticket":          detail.Ticket,
		"Comments":        detail.Comments,
		"Agents":          detail.Agents,
		"AllowedStatus":   domain.Statuses(),
		"AllowedPriority": domain.Priorities(),
	}), "layouts/main")
}

// Comment handles POST /tickets/:id/comment.
func (h *TicketsHandler) Comment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return flashRedirect(c, h.sessions, "danger", "Ticket not found.", "/tickets")
	}
	detailPath := fmt.Sprintf("/tickets/%d", ticketID)

	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return flashRedirect(c, h.sessions, "danger", "Comment cannot be empty.", detailPath)
	}

	if _, err := h.tickets.AddComment(c.Context(), *principal, ticketID, req.Comment); err != nil {
		switch {
		case apperrors.IsCode(err, apperrors.CodeValidation):
			return flashRedirect(c, h.sessions, "danger", "Comment cannot be empty.", detailPath)
		case apperrors.IsCode(err, apperrors.CodeNotFound):
			return flashRedirect(c, h.sessions, "danger", "Ticket not found.", "/tickets")
		case apperrors.IsCode(err, apperrors.CodeForbidden):
			return flashRedirect(c, h.sessions, "danger", "You do not have permission to comment on that ticket.", "/tickets")
		}
		return err
	}
	return flashRedirect(c, h.sessions, "success", "Comment added.", detailPath)
}

// Update handles POST /tickets/:id/update, the form-based update.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return flashRedirect(c, h.sessions, "danger", "Ticket not found.", "/tickets")
	}
	detailPath := fmt.Sprintf("/tickets/%d", ticketID)

	if principal.Role == domain.RoleUser {
		return flashRedirect(c, h.sessions, "danger", "You are not allowed to update tickets.", detailPath)
	}

	var req dto.TicketUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return flashRedirect(c, h.sessions, "danger", "Invalid status.", detailPath)
	}

	input := service.TicketUpdateInput{
		Status:     req.Status,
		Priority:   req.Priority,
		AssignedTo: parseAssignee(req.AssignedTo),
	}
	if _, err := h.tickets.Update(c.Context(), *principal, ticketID, input); err != nil {
		switch {
		case apperrors.IsCode(err, apperrors.CodeValidation):
			return flashRedirect(c, h.sessions, "danger", apperrors.ToDomainError(err).Message, detailPath)
		case apperrors.IsCode(err, apperrors.CodeNotFound):
			return flashRedirect(c, h.sessions, "danger", "Ticket not found.", "/tickets")
		case apperrors.IsCode(err, apperrors.CodeForbidden):
			return flashRedirect(c, h.sessions, "danger", "You are not allowed to update this ticket.", "/tickets")
		}
		return err
	}
	return flashRedirect(c, h.sessions, "success", "Ticket updated.", detailPath)
}

// AjaxUpdate handles POST /tickets/:id/ajax_update with a structured
// response instead of redirects.
func (h *TicketsHandler) AjaxUpdate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(dto.AjaxUpdateResponse{OK: false, Message: "Not logged in"})
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(dto.AjaxUpdateResponse{OK: false, Message: "Ticket not found"})
	}

	var req dto.AjaxUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.AjaxUpdateResponse{OK: false, Message: "Invalid values"})
	}

	if _, err := h.tickets.AjaxUpdate(c.Context(), *principal, ticketID, req.Status, req.Priority); err != nil {
		switch {
		case apperrors.IsCode(err, apperrors.CodeValidation):
			return c.Status(http.StatusBadRequest).JSON(dto.AjaxUpdateResponse{OK: false, Message: "Invalid values"})
		case apperrors.IsCode(err, apperrors.CodeNotFound):
			return c.Status(http.StatusNotFound).JSON(dto.AjaxUpdateResponse{OK: false, Message: "Ticket not found"})
		case apperrors.IsCode(err, apperrors.CodeForbidden):
			return c.Status(http.StatusForbidden).JSON(dto.AjaxUpdateResponse{OK: false, Message: "Not allowed"})
		}
		return err
	}
	return c.JSON(dto.AjaxUpdateResponse{OK: true, Message: "Updated"})
}

func (h *TicketsHandler) renderCreate(c *fiber.Ctx, errMsg string) error {
	bind := fiber.Map{
		"Title":           "New ticket",
		"AllowedPriority": domain.Priorities(),
	}
	if errMsg != "" {
		bind["Error"] = errMsg
	}
	return c.Render("ticket_create", bindView(c, h.sessions, bind), "layouts/main")
}

func ticketIDParam(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// parseAssignee converts the raw assignee select value; empty or malformed
// input means unassigned.
func parseAssignee(raw string) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
