package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTerminalState     = errors.New("booking is in a terminal state")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// Booking is the confirmed engagement. Created exactly once per request, only
// by the Factory, inside the same commit that matches the request.
type Booking struct {
	id          uuid.UUID
	requestID   uuid.UUID
	offerID     uuid.UUID
	requesterID uuid.UUID
	providerID  uuid.UUID
	status      Status
	confirmedAt time.Time
	updatedAt   time.Time
}

func ReconstructBooking(
	id, requestID, offerID, requesterID, providerID uuid.UUID,
	status Status,
	confirmedAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:          id,
		requestID:   requestID,
		offerID:     offerID,
		requesterID: requesterID,
		providerID:  providerID,
		status:      status,
		confirmedAt: confirmedAt,
		updatedAt:   updatedAt,
	}
}

func (b *Booking) Start(now time.Time) error {
	return b.transitionTo(StatusInProgress, now)
}

func (b *Booking) Complete(now time.Time) error {
	return b.transitionTo(StatusCompleted, now)
}

func (b *Booking) Cancel(now time.Time) error {
	return b.transitionTo(StatusCancelled, now)
}

func (b *Booking) transitionTo(next Status, now time.Time) error {
	if b.status.IsTerminal() {
		return ErrTerminalState
	}
	if !b.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	b.status = next
	b.updatedAt = now
	return nil
}

func (b *Booking) InvolvesActor(actorID uuid.UUID) bool {
	return b.requesterID == actorID || b.providerID == actorID
}

func (b *Booking) ID() uuid.UUID          { return b.id }
func (b *Booking) RequestID() uuid.UUID   { return b.requestID }
func (b *Booking) OfferID() uuid.UUID     { return b.offerID }
func (b *Booking) RequesterID() uuid.UUID { return b.requesterID }
func (b *Booking) ProviderID() uuid.UUID  { return b.providerID }
func (b *Booking) Status() Status         { return b.status }
func (b *Booking) ConfirmedAt() time.Time { return b.confirmedAt }
func (b *Booking) UpdatedAt() time.Time   { return b.updatedAt }
