// Package authz is the single place the role/ownership rule table lives.
// Every viewing and mutating operation consults these functions; callers
// never re-derive the rules from role strings.
//
// The functions are pure: they take a role, the principal's id and the
// ticket's ownership fields, and return a decision. Role values are trusted
// here because they are validated at the session and registration boundaries.
package authz

import "github.com/spec-kit/helpdesk/internal/domain"

// CanView reports whether the principal may see the ticket.
//
// ADMIN sees everything. AGENT sees unclaimed tickets and tickets assigned
// to them. USER sees only tickets they created.
func CanView(role domain.Role, principalID int64, ticket *domain.Ticket) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAgent:
		return ticket.AssignedTo == nil || *ticket.AssignedTo == principalID
	case domain.RoleUser:
		return ticket.CreatedBy == principalID
	}
	return false
}

// CanComment mirrors CanView: anyone who may see a ticket may comment on it.
func CanComment(role domain.Role, principalID int64, ticket *domain.Ticket) bool {
	return CanView(role, principalID, ticket)
}

// CanUpdate reports whether the principal may change status/priority.
// USER is denied outright; ADMIN and AGENT follow the view rule.
func CanUpdate(role domain.Role, principalID int64, ticket *domain.Ticket) bool {
	if role == domain.RoleUser {
		return false
	}
	return CanView(role, principalID, ticket)
}

// CanReassign reports whether the principal may change assigned_to.
// Only admins reassign; for everyone else the current value is kept.
func CanReassign(role domain.Role) bool {
	return role == domain.RoleAdmin
}

// Scope restricts a ticket listing to what the principal may see. Exactly
// one field is set for non-admin roles; both nil means unrestricted.
type Scope struct {
	// CreatedBy limits results to tickets created by this user.
	CreatedBy *int64
	// AssignedToOrUnclaimed limits results to tickets assigned to this
	// agent or not assigned at all.
	AssignedToOrUnclaimed *int64
}

// ScopeFor derives the mandatory visibility predicate for list queries.
func ScopeFor(role domain.Role, principalID int64) Scope {
	switch role {
	case domain.RoleAgent:
		id := principalID
		return Scope{AssignedToOrUnclaimed: &id}
	case domain.RoleUser:
		id := principalID
		return Scope{CreatedBy: &id}
	}
	return Scope{}
}
