package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventOfferSubmitted EventType = "OFFER_SUBMITTED"
	EventOfferAccepted  EventType = "OFFER_ACCEPTED"
	EventRequestExpired EventType = "REQUEST_EXPIRED"
)

type Event struct {
	Type         EventType
	RequestID    uuid.UUID
	OfferID      *uuid.UUID
	Participants []uuid.UUID
	OccurredAt   time.Time
}

// NotificationGateway receives engine events. Delivery and retry semantics
// are the gateway's own concern; the engine fires and forgets.
type NotificationGateway interface {
	Publish(ctx context.Context, event Event) error
}

// LogNotifier is the default gateway: it records events on the structured
// log until a real delivery channel is wired in.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Publish(_ context.Context, event Event) error {
	attrs := []any{
		"event_type", string(event.Type),
		"request_id", event.RequestID.String(),
		"participants", len(event.Participants),
	}
	if event.OfferID != nil {
		attrs = append(attrs, "offer_id", event.OfferID.String())
	}
	n.logger.Info("domain event published", attrs...)
	return nil
}
