package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/authz"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService is the ticket lifecycle controller. Every operation checks
// the authz policy before touching the repositories, and every mutation runs
// inside a single transaction.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	tx         repository.TxRunner
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	TxRunner    repository.TxRunner
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes the creation form payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    string
}

// TicketListInput carries optional list filters as submitted. Out-of-enum
// status/priority values are ignored rather than rejected.
type TicketListInput struct {
	Search   string
	Status   string
	Priority string
}

// TicketUpdateInput describes the update form payload. AssignedTo is nil
// when the form submits an empty assignee.
type TicketUpdateInput struct {
	Status     string
	Priority   string
	AssignedTo *int64
}

// TicketDetail is the full view of one ticket.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Comments []domain.Comment
	// Agents is populated for admins only: the assignee picker candidates.
	Agents []domain.User
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		tx:         deps.TxRunner,
		dispatcher: deps.Dispatcher,
	}
}

// Create opens a new ticket. Status is always OPEN, the ticket starts
// unclaimed, and an invalid or absent priority falls back to MEDIUM.
func (s *TicketService) Create(ctx context.Context, principal auth.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("Title and description are required.", nil)
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Priority:    domain.DefaultPriority(strings.TrimSpace(input.Priority)),
		Status:      domain.TicketStatusOpen,
		CreatedBy:   principal.ID,
		AssignedTo:  nil,
	}

	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		return s.tickets.WithTx(tx).Create(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorFor(principal),
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// List returns the tickets the principal may see, newest first. The
// role-scoped visibility predicate is mandatory; the submitted filters are
// applied on top when valid.
func (s *TicketService) List(ctx context.Context, principal auth.Principal, input TicketListInput) ([]domain.Ticket, error) {
	scope := authz.ScopeFor(principal.Role, principal.ID)
	filter := repository.TicketFilter{
		CreatedBy:             scope.CreatedBy,
		AssignedToOrUnclaimed: scope.AssignedToOrUnclaimed,
		TitleSearch:           strings.TrimSpace(input.Search),
	}
	if status, ok := domain.ParseStatus(strings.TrimSpace(input.Status)); ok {
		filter.Status = &status
	}
	if priority, ok := domain.ParsePriority(strings.TrimSpace(input.Priority)); ok {
		filter.Priority = &priority
	}
	return s.tickets.List(ctx, filter)
}

// Get loads one ticket with its comment trail, enforcing the view policy.
// Admins also receive the agent list for the assignee picker.
func (s *TicketService) Get(ctx context.Context, principal auth.Principal, ticketID int64) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err)
	}
	if !authz.CanView(principal.Role, principal.ID, ticket) {
		return nil, apperrors.NewForbidden("You do not have permission to view that ticket.")
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	detail := &TicketDetail{Ticket: ticket, Comments: comments}
	if principal.Role == domain.RoleAdmin {
		agents, err := s.users.ListAgents(ctx)
		if err != nil {
			return nil, err
		}
		detail.Agents = agents
	}
	return detail, nil
}

// AddComment appends an immutable comment to the ticket's trail. The
// comment policy mirrors the view policy.
func (s *TicketService) AddComment(ctx context.Context, principal auth.Principal, ticketID int64, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("Comment cannot be empty.", nil)
	}

	comment := &domain.Comment{
		TicketID: ticketID,
		UserID:   principal.ID,
		Body:     body,
	}
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		ticket, err := s.tickets.WithTx(tx).GetByID(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err)
		}
		if !authz.CanComment(principal.Role, principal.ID, ticket) {
			return apperrors.NewForbidden("You do not have permission to comment on that ticket.")
		}
		return s.comments.WithTx(tx).Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCommented,
		TicketID: ticketID,
		Actor:    actorFor(principal),
		Payload: events.TicketCommentedPayload{
			CommentID:   comment.ID,
			BodyPreview: preview(comment.Body, 120),
		},
	})
	return comment, nil
}

// Update applies the form-based update. Admins may reassign; everyone else
// has assigned_to forced to the ticket's current value.
func (s *TicketService) Update(ctx context.Context, principal auth.Principal, ticketID int64, input TicketUpdateInput) (*domain.Ticket, error) {
	return s.applyUpdate(ctx, principal, ticketID, input.Status, input.Priority, input.AssignedTo, true)
}

// AjaxUpdate applies the structured in-place edit. It shares the update
// decision path but never touches assigned_to, so repeating the same call
// leaves the ticket unchanged.
func (s *TicketService) AjaxUpdate(ctx context.Context, principal auth.Principal, ticketID int64, status, priority string) (*domain.Ticket, error) {
	return s.applyUpdate(ctx, principal, ticketID, status, priority, nil, false)
}

// applyUpdate is the single update operation behind both entry points,
// parameterized by whether an assignment change may be applied.
func (s *TicketService) applyUpdate(ctx context.Context, principal auth.Principal, ticketID int64, rawStatus, rawPriority string, assignedTo *int64, allowAssign bool) (*domain.Ticket, error) {
	if principal.Role == domain.RoleUser {
		return nil, apperrors.NewForbidden("You are not allowed to update tickets.")
	}

	status, ok := domain.ParseStatus(strings.TrimSpace(rawStatus))
	if !ok {
		return nil, apperrors.NewValidationError("Invalid status.", nil)
	}
	priority, ok := domain.ParsePriority(strings.TrimSpace(rawPriority))
	if !ok {
		return nil, apperrors.NewValidationError("Invalid priority.", nil)
	}

	var updated *domain.Ticket
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		tickets := s.tickets.WithTx(tx)
		ticket, err := tickets.GetByID(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err)
		}
		if !authz.CanUpdate(principal.Role, principal.ID, ticket) {
			return apperrors.NewForbidden("You are not allowed to update this ticket.")
		}

		next := ticket.AssignedTo
		if allowAssign && authz.CanReassign(principal.Role) {
			next = assignedTo
		}

		if err := tickets.Update(ctx, ticketID, status, priority, next); err != nil {
			return err
		}
		ticket.Status = status
		ticket.Priority = priority
		ticket.AssignedTo = next
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticketID,
		Actor:    actorFor(principal),
		Payload: events.TicketUpdatedPayload{
			Status:     updated.Status,
			Priority:   updated.Priority,
			AssignedTo: updated.AssignedTo,
		},
	})
	return updated, nil
}

// Dashboard returns ticket counts per status with every enum value present.
func (s *TicketService) Dashboard(ctx context.Context) (map[domain.TicketStatus]int64, error) {
	counts, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, status := range domain.Statuses() {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	return counts, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(principal auth.Principal) events.Actor {
	return events.Actor{UserID: principal.ID, Role: principal.Role}
}

func mapTicketErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket")
	}
	return err
}

func preview(body string, max int) string {
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
