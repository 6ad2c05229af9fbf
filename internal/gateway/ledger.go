package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// Engagement is what the ledger collaborator needs to open an account entry
// for a confirmed booking. Terms stay opaque; the ledger parses what it needs.
type Engagement struct {
	BookingID uuid.UUID
	PayerID   uuid.UUID
	PayeeID   uuid.UUID
	Terms     json.RawMessage
}

// LedgerGateway is invoked after a booking is created. The engine does not
// interpret or retry payment outcomes.
type LedgerGateway interface {
	RecordEngagement(ctx context.Context, engagement Engagement) error
}

type LogLedger struct {
	logger *slog.Logger
}

func NewLogLedger(logger *slog.Logger) *LogLedger {
	return &LogLedger{logger: logger}
}

func (l *LogLedger) RecordEngagement(_ context.Context, engagement Engagement) error {
	l.logger.Info("engagement recorded",
		"booking_id", engagement.BookingID.String(),
		"payer_id", engagement.PayerID.String(),
		"payee_id", engagement.PayeeID.String(),
	)
	return nil
}
