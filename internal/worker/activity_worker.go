package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

// StartActivityLogger subscribes a structured activity log to ticket and
// user events. This is the operational audit trail; it sends nothing to
// anyone.
func StartActivityLogger(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}

	handler := func(_ context.Context, event events.Event) error {
		logger.Info("activity",
			zap.String("event", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Int64("ticket_id", event.TicketID),
			zap.Int64("actor_id", event.Actor.UserID),
			zap.String("actor_role", string(event.Actor.Role)),
			zap.Any("payload", event.Payload),
		)
		return nil
	}

	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketCommented,
		events.EventUserRoleChanged,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
