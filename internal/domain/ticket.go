package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Status is a freely
// settable enum: any authorized actor may move a ticket to any status,
// including back from RESOLVED.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Statuses lists every valid status, in display order.
func Statuses() []TicketStatus {
	return []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved}
}

// Priorities lists every valid priority, in display order.
func Priorities() []TicketPriority {
	return []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh}
}

// ParseStatus validates a raw status value.
func ParseStatus(s string) (TicketStatus, bool) {
	switch TicketStatus(s) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return TicketStatus(s), true
	}
	return "", false
}

// ParsePriority validates a raw priority value.
func ParsePriority(s string) (TicketPriority, bool) {
	switch TicketPriority(s) {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return TicketPriority(s), true
	}
	return "", false
}

// DefaultPriority falls back to MEDIUM when the input is not a valid
// priority. Creation-time defaulting only; updates reject invalid values.
func DefaultPriority(s string) TicketPriority {
	if p, ok := ParsePriority(s); ok {
		return p
	}
	return TicketPriorityMedium
}

// Ticket is the aggregate for support requests. CreatedBy is immutable after
// creation; AssignedTo is nil until an admin claims the ticket for an agent.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Priority    TicketPriority
	Status      TicketStatus
	CreatedBy   int64
	AssignedTo  *int64
	CreatedAt   time.Time

	// Joined display fields, populated by list/detail queries.
	CreatedByName  string
	AssignedToName *string
}
