package booking

import (
	"errors"

	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"
	"fleet-match/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrOfferNotAccepted = errors.New("booking requires an accepted offer")
	ErrOfferMismatch    = errors.New("offer does not belong to the request")
)

// ConfirmedEvent is the domain event handed to the notification and ledger
// collaborators. The payload never mutates engine state.
type ConfirmedEvent struct {
	BookingID   uuid.UUID
	RequestID   uuid.UUID
	OfferID     uuid.UUID
	RequesterID uuid.UUID
	ProviderID  uuid.UUID
	OfferTerms  offer.Terms
}

type Factory struct {
	clock clock.Clock
}

func NewFactory(clk clock.Clock) *Factory {
	return &Factory{clock: clk}
}

// CreateFromAcceptance builds the one booking for a matched request. Callers
// invoke it inside the same commit that marks the request MATCHED, which is
// what makes it at-most-once.
func (f *Factory) CreateFromAcceptance(req *request.Request, accepted *offer.Offer) (*Booking, ConfirmedEvent, error) {
	if accepted.Status() != offer.StatusAccepted {
		return nil, ConfirmedEvent{}, ErrOfferNotAccepted
	}
	if !accepted.BelongsTo(req.ID()) {
		return nil, ConfirmedEvent{}, ErrOfferMismatch
	}

	now := f.clock.Now()
	b := &Booking{
		id:          uuid.New(),
		requestID:   req.ID(),
		offerID:     accepted.ID(),
		requesterID: req.RequesterID(),
		providerID:  accepted.ProviderID(),
		status:      StatusConfirmed,
		confirmedAt: now,
		updatedAt:   now,
	}

	event := ConfirmedEvent{
		BookingID:   b.id,
		RequestID:   b.requestID,
		OfferID:     b.offerID,
		RequesterID: b.requesterID,
		ProviderID:  b.providerID,
		OfferTerms:  accepted.Terms(),
	}

	return b, event, nil
}
