package offer

import (
	"encoding/json"
	"errors"
	"time"

	"fleet-match/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrInvalidTerms      = errors.New("terms payload must be a JSON object")
	ErrMissingRequest    = errors.New("request id is required")
	ErrMissingProvider   = errors.New("provider id is required")
	ErrNonPositiveTTL    = errors.New("ttl must be positive")
	ErrTerminalState     = errors.New("offer is in a terminal state")
	ErrInvalidTransition = errors.New("invalid offer status transition")
)

// Terms is the provider's opaque proposal payload (price, eta, warranty).
type Terms struct {
	raw json.RawMessage
}

func NewTerms(raw json.RawMessage) (Terms, error) {
	if len(raw) == 0 || !json.Valid(raw) {
		return Terms{}, ErrInvalidTerms
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Terms{}, ErrInvalidTerms
	}
	return Terms{raw: raw}, nil
}

func ReconstructTerms(raw json.RawMessage) Terms {
	return Terms{raw: raw}
}

func (t Terms) Raw() json.RawMessage {
	return t.raw
}

func (t Terms) IsZero() bool {
	return len(t.raw) == 0
}

// Offer is a time-bounded proposal from a provider against a request. The
// provider owns it until it reaches a terminal state.
type Offer struct {
	id          uuid.UUID
	requestID   uuid.UUID
	providerID  uuid.UUID
	terms       Terms
	status      Status
	submittedAt time.Time
	expiresAt   time.Time
	updatedAt   time.Time
}

func NewOffer(
	clk clock.Clock,
	requestID, providerID uuid.UUID,
	terms Terms,
	ttl time.Duration,
) (*Offer, error) {
	if requestID == uuid.Nil {
		return nil, ErrMissingRequest
	}
	if providerID == uuid.Nil {
		return nil, ErrMissingProvider
	}
	if terms.IsZero() {
		return nil, ErrInvalidTerms
	}
	if ttl <= 0 {
		return nil, ErrNonPositiveTTL
	}
	now := clk.Now()

	return &Offer{
		id:          uuid.New(),
		requestID:   requestID,
		providerID:  providerID,
		terms:       terms,
		status:      StatusPending,
		submittedAt: now,
		expiresAt:   now.Add(ttl),
		updatedAt:   now,
	}, nil
}

func ReconstructOffer(
	id, requestID, providerID uuid.UUID,
	terms Terms,
	status Status,
	submittedAt, expiresAt, updatedAt time.Time,
) *Offer {
	return &Offer{
		id:          id,
		requestID:   requestID,
		providerID:  providerID,
		terms:       terms,
		status:      status,
		submittedAt: submittedAt,
		expiresAt:   expiresAt,
		updatedAt:   updatedAt,
	}
}

func (o *Offer) Accept(now time.Time) error {
	return o.transitionTo(StatusAccepted, now)
}

func (o *Offer) Reject(now time.Time) error {
	return o.transitionTo(StatusRejected, now)
}

func (o *Offer) Expire(now time.Time) error {
	return o.transitionTo(StatusExpired, now)
}

func (o *Offer) Withdraw(now time.Time) error {
	return o.transitionTo(StatusWithdrawn, now)
}

func (o *Offer) transitionTo(next Status, now time.Time) error {
	if o.status.IsTerminal() {
		return ErrTerminalState
	}
	if !o.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	o.status = next
	o.updatedAt = now
	return nil
}

func (o *Offer) IsPending() bool {
	return o.status == StatusPending
}

// HasExpired is the lazy expiry check: an offer past its deadline is never
// acceptable, even before the sweeper has retired it.
func (o *Offer) HasExpired(now time.Time) bool {
	return !now.Before(o.expiresAt)
}

func (o *Offer) IsOwnedBy(actorID uuid.UUID) bool {
	return o.providerID == actorID
}

func (o *Offer) BelongsTo(requestID uuid.UUID) bool {
	return o.requestID == requestID
}

func (o *Offer) ID() uuid.UUID          { return o.id }
func (o *Offer) RequestID() uuid.UUID   { return o.requestID }
func (o *Offer) ProviderID() uuid.UUID  { return o.providerID }
func (o *Offer) Terms() Terms           { return o.terms }
func (o *Offer) Status() Status         { return o.status }
func (o *Offer) SubmittedAt() time.Time { return o.submittedAt }
func (o *Offer) ExpiresAt() time.Time   { return o.expiresAt }
func (o *Offer) UpdatedAt() time.Time   { return o.updatedAt }
