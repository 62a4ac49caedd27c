package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type ticketFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	comments   *fakeCommentRepo
	users      *fakeUserRepo
	dispatcher *recordingDispatcher
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	comments := newFakeCommentRepo()
	users := newFakeUserRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		CommentRepo: comments,
		UserRepo:    users,
		TxRunner:    fakeTxRunner{},
		Dispatcher:  dispatcher,
	})
	return &ticketFixture{
		service:    svc,
		tickets:    tickets,
		comments:   comments,
		users:      users,
		dispatcher: dispatcher,
	}
}

func (f *ticketFixture) seedTicket(t *testing.T, createdBy int64, assignedTo *int64) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Title:       "printer on fire",
		Description: "it is very much on fire",
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   createdBy,
		AssignedTo:  assignedTo,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	return ticket
}

func TestCreateRejectsBlankFields(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	user := principalFor(1, domain.RoleUser)

	for _, input := range []TicketCreateInput{
		{Title: "", Description: "something"},
		{Title: "   ", Description: "something"},
		{Title: "something", Description: ""},
		{Title: "something", Description: "  \t "},
	} {
		_, err := f.service.Create(ctx, user, input)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	}

	// nothing was persisted and no event fired
	all, err := f.tickets.List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.dispatcher.byType(events.EventTicketCreated))
}

func TestCreateDefaults(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	user := principalFor(7, domain.RoleUser)

	ticket, err := f.service.Create(ctx, user, TicketCreateInput{
		Title:       "  vpn down  ",
		Description: "cannot connect",
		Priority:    "not-a-priority",
	})
	require.NoError(t, err)

	assert.Equal(t, "vpn down", ticket.Title)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, int64(7), ticket.CreatedBy)
	assert.Nil(t, ticket.AssignedTo)
	assert.NotZero(t, ticket.ID)

	created := f.dispatcher.byType(events.EventTicketCreated)
	require.Len(t, created, 1)
	assert.Equal(t, ticket.ID, created[0].TicketID)
	assert.Equal(t, int64(7), created[0].Actor.UserID)
}

func TestCreateKeepsValidPriority(t *testing.T) {
	f := newTicketFixture(t)
	ticket, err := f.service.Create(context.Background(), principalFor(1, domain.RoleUser), TicketCreateInput{
		Title:       "disk full",
		Description: "no space left",
		Priority:    "HIGH",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
}

func TestListVisibilityByRole(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	byAlice := f.seedTicket(t, 1, nil)                // unclaimed
	byBob := f.seedTicket(t, 2, ptr(int64(5)))        // claimed by agent 5
	byCarol := f.seedTicket(t, 3, ptr(int64(9)))      // claimed by agent 9

	ids := func(tickets []domain.Ticket) []int64 {
		var out []int64
		for _, ticket := range tickets {
			out = append(out, ticket.ID)
		}
		return out
	}

	adminTickets, err := f.service.List(ctx, principalFor(100, domain.RoleAdmin), TicketListInput{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{byAlice.ID, byBob.ID, byCarol.ID}, ids(adminTickets))

	agentTickets, err := f.service.List(ctx, principalFor(5, domain.RoleAgent), TicketListInput{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{byAlice.ID, byBob.ID}, ids(agentTickets))

	aliceTickets, err := f.service.List(ctx, principalFor(1, domain.RoleUser), TicketListInput{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{byAlice.ID}, ids(aliceTickets))

	strangerTickets, err := f.service.List(ctx, principalFor(42, domain.RoleUser), TicketListInput{})
	require.NoError(t, err)
	assert.Empty(t, strangerTickets)
}

func TestListIgnoresInvalidFilters(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	admin := principalFor(1, domain.RoleAdmin)

	open := f.seedTicket(t, 2, nil)
	resolved := f.seedTicket(t, 2, nil)
	require.NoError(t, f.tickets.Update(ctx, resolved.ID, domain.TicketStatusResolved, domain.TicketPriorityLow, nil))

	// bogus status: filter dropped, both visible
	all, err := f.service.List(ctx, admin, TicketListInput{Status: "BOGUS"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// valid status: applied
	onlyOpen, err := f.service.List(ctx, admin, TicketListInput{Status: "OPEN"})
	require.NoError(t, err)
	require.Len(t, onlyOpen, 1)
	assert.Equal(t, open.ID, onlyOpen[0].ID)

	// search matches case-insensitively on title
	found, err := f.service.List(ctx, admin, TicketListInput{Search: "PRINTER"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	none, err := f.service.List(ctx, admin, TicketListInput{Search: "nonexistent"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetEnforcesViewPolicy(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, ptr(int64(9)))

	_, err := f.service.Get(ctx, principalFor(1, domain.RoleUser), 999)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.service.Get(ctx, principalFor(2, domain.RoleUser), ticket.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	// claimed by agent 9, so agent 5 cannot view
	_, err = f.service.Get(ctx, principalFor(5, domain.RoleAgent), ticket.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	detail, err := f.service.Get(ctx, principalFor(1, domain.RoleUser), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, detail.Ticket.ID)
	assert.Nil(t, detail.Agents)
}

func TestGetIncludesAgentsForAdmin(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, nil)

	require.NoError(t, f.users.Create(ctx, &domain.User{Name: "Zoe", Email: "zoe@example.com", Role: domain.RoleAgent}))
	require.NoError(t, f.users.Create(ctx, &domain.User{Name: "Amir", Email: "amir@example.com", Role: domain.RoleAgent}))
	require.NoError(t, f.users.Create(ctx, &domain.User{Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin}))

	detail, err := f.service.Get(ctx, principalFor(50, domain.RoleAdmin), ticket.ID)
	require.NoError(t, err)
	require.Len(t, detail.Agents, 2)
	assert.Equal(t, "Amir", detail.Agents[0].Name)
	assert.Equal(t, "Zoe", detail.Agents[1].Name)
}

func TestAddCommentValidation(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, nil)

	_, err := f.service.AddComment(ctx, principalFor(1, domain.RoleUser), ticket.ID, "   ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Zero(t, f.comments.count())
}

func TestAddCommentPolicy(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, ptr(int64(9)))

	// non-owner user cannot comment
	_, err := f.service.AddComment(ctx, principalFor(2, domain.RoleUser), ticket.ID, "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	assert.Zero(t, f.comments.count())

	_, err = f.service.AddComment(ctx, principalFor(1, domain.RoleUser), 999, "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	comment, err := f.service.AddComment(ctx, principalFor(1, domain.RoleUser), ticket.ID, "  works now  ")
	require.NoError(t, err)
	assert.Equal(t, "works now", comment.Body)
	assert.Equal(t, int64(1), comment.UserID)

	trail, err := f.comments.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 1)

	commented := f.dispatcher.byType(events.EventTicketCommented)
	require.Len(t, commented, 1)
	assert.Equal(t, ticket.ID, commented[0].TicketID)
}

func TestUpdateForbiddenForUsers(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, nil)

	_, err := f.service.Update(ctx, principalFor(1, domain.RoleUser), ticket.ID, TicketUpdateInput{
		Status:   "RESOLVED",
		Priority: "LOW",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	unchanged, getErr := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TicketStatusOpen, unchanged.Status)
}

func TestUpdateForbiddenForAgentOnForeignClaim(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, ptr(int64(9)))

	_, err := f.service.Update(ctx, principalFor(5, domain.RoleAgent), ticket.ID, TicketUpdateInput{
		Status:   "RESOLVED",
		Priority: "LOW",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	unchanged, getErr := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TicketStatusOpen, unchanged.Status)
	require.NotNil(t, unchanged.AssignedTo)
	assert.Equal(t, int64(9), *unchanged.AssignedTo)
	assert.Empty(t, f.dispatcher.byType(events.EventTicketUpdated))
}

func TestUpdateRejectsInvalidEnums(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, nil)
	admin := principalFor(50, domain.RoleAdmin)

	_, err := f.service.Update(ctx, admin, ticket.ID, TicketUpdateInput{Status: "CLOSED", Priority: "LOW"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.service.Update(ctx, admin, ticket.ID, TicketUpdateInput{Status: "OPEN", Priority: "URGENT"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestUpdateMissingTicket(t *testing.T) {
	f := newTicketFixture(t)
	_, err := f.service.Update(context.Background(), principalFor(50, domain.RoleAdmin), 404, TicketUpdateInput{
		Status:   "OPEN",
		Priority: "LOW",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestAdminReassign(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, ptr(int64(5)))

	updated, err := f.service.Update(ctx, principalFor(50, domain.RoleAdmin), ticket.ID, TicketUpdateInput{
		Status:     "IN_PROGRESS",
		Priority:   "HIGH",
		AssignedTo: ptr(int64(9)),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, int64(9), *updated.AssignedTo)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)

	// empty assignee unassigns
	updated, err = f.service.Update(ctx, principalFor(50, domain.RoleAdmin), ticket.ID, TicketUpdateInput{
		Status:   "IN_PROGRESS",
		Priority: "HIGH",
	})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo)
}

func TestAgentCannotReassign(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, ptr(int64(5)))

	// agent 5 tries to hand the ticket to agent 9; assignment is forced back
	updated, err := f.service.Update(ctx, principalFor(5, domain.RoleAgent), ticket.ID, TicketUpdateInput{
		Status:     "RESOLVED",
		Priority:   "LOW",
		AssignedTo: ptr(int64(9)),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, int64(5), *updated.AssignedTo)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
}

func TestAjaxUpdatePreservesAssignment(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, ptr(int64(5)))

	updated, err := f.service.AjaxUpdate(ctx, principalFor(50, domain.RoleAdmin), ticket.ID, "RESOLVED", "LOW")
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, int64(5), *updated.AssignedTo)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	assert.Equal(t, domain.TicketPriorityLow, updated.Priority)
}

func TestAjaxUpdateIdempotent(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, nil)
	agent := principalFor(5, domain.RoleAgent)

	first, err := f.service.AjaxUpdate(ctx, agent, ticket.ID, "IN_PROGRESS", "HIGH")
	require.NoError(t, err)
	second, err := f.service.AjaxUpdate(ctx, agent, ticket.ID, "IN_PROGRESS", "HIGH")
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Priority, second.Priority)
	assert.Equal(t, first.AssignedTo, second.AssignedTo)

	stored, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	assert.Equal(t, domain.TicketPriorityHigh, stored.Priority)
	assert.Nil(t, stored.AssignedTo)
}

func TestStatusTransitionsUnconstrained(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, 1, nil)
	admin := principalFor(50, domain.RoleAdmin)

	// any valid status can follow any other, including reopening
	for _, status := range []string{"RESOLVED", "OPEN", "IN_PROGRESS", "RESOLVED", "OPEN"} {
		updated, err := f.service.AjaxUpdate(ctx, admin, ticket.ID, status, "MEDIUM")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatus(status), updated.Status)
	}
}

func TestDashboardZeroFills(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	counts, err := f.service.Dashboard(ctx)
	require.NoError(t, err)
	for _, status := range domain.Statuses() {
		assert.Equal(t, int64(0), counts[status])
	}

	f.seedTicket(t, 1, nil)
	f.seedTicket(t, 2, nil)
	ticket := f.seedTicket(t, 3, nil)
	require.NoError(t, f.tickets.Update(ctx, ticket.ID, domain.TicketStatusResolved, domain.TicketPriorityLow, nil))

	counts, err = f.service.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.TicketStatusOpen])
	assert.Equal(t, int64(0), counts[domain.TicketStatusInProgress])
	assert.Equal(t, int64(1), counts[domain.TicketStatusResolved])
}
