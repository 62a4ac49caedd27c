package domain

import "time"

// Comment is an immutable entry in a ticket's audit trail. Comments are
// listed in creation order and never edited or deleted.
type Comment struct {
	ID        int64
	TicketID  int64
	UserID    int64
	Body      string
	CreatedAt time.Time

	// Joined display field.
	AuthorName string
}
