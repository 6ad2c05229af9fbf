package request

import (
	"errors"
	"time"

	"fleet-match/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrInvalidFlowKind   = errors.New("invalid flow kind")
	ErrMissingRequester  = errors.New("requester id is required")
	ErrClosesAtInPast    = errors.New("closesAt must be in the future")
	ErrTerminalState     = errors.New("request is in a terminal state")
	ErrInvalidTransition = errors.New("invalid request status transition")
)

// Request is a posted need open to competing offers. State only moves through
// the transition table in types.go; terminal states are final.
type Request struct {
	id          uuid.UUID
	requesterID uuid.UUID
	flowKind    FlowKind
	terms       Terms
	status      Status
	closesAt    *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

func NewRequest(
	clk clock.Clock,
	requesterID uuid.UUID,
	flowKind FlowKind,
	terms Terms,
	closesAt *time.Time,
) (*Request, error) {
	if requesterID == uuid.Nil {
		return nil, ErrMissingRequester
	}
	if !flowKind.IsValid() {
		return nil, ErrInvalidFlowKind
	}
	if terms.IsZero() {
		return nil, ErrInvalidTerms
	}
	now := clk.Now()
	if closesAt != nil && !closesAt.After(now) {
		return nil, ErrClosesAtInPast
	}

	return &Request{
		id:          uuid.New(),
		requesterID: requesterID,
		flowKind:    flowKind,
		terms:       terms,
		status:      StatusOpen,
		closesAt:    closesAt,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func ReconstructRequest(
	id, requesterID uuid.UUID,
	flowKind FlowKind,
	terms Terms,
	status Status,
	closesAt *time.Time,
	createdAt, updatedAt time.Time,
) *Request {
	return &Request{
		id:          id,
		requesterID: requesterID,
		flowKind:    flowKind,
		terms:       terms,
		status:      status,
		closesAt:    closesAt,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// MarkOffersReceived records that at least one offer exists. Informational
// only: it never gates further submissions.
func (r *Request) MarkOffersReceived(now time.Time) error {
	if r.status == StatusOffersReceived {
		return nil
	}
	return r.transitionTo(StatusOffersReceived, now)
}

func (r *Request) Match(now time.Time) error {
	return r.transitionTo(StatusMatched, now)
}

func (r *Request) Close(now time.Time) error {
	return r.transitionTo(StatusClosed, now)
}

func (r *Request) Cancel(now time.Time) error {
	return r.transitionTo(StatusCancelled, now)
}

func (r *Request) Expire(now time.Time) error {
	return r.transitionTo(StatusExpired, now)
}

func (r *Request) transitionTo(next Status, now time.Time) error {
	if r.status.IsTerminal() {
		return ErrTerminalState
	}
	if !r.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	r.status = next
	r.updatedAt = now
	return nil
}

// AcceptsOffers reports whether a new offer may target this request.
func (r *Request) AcceptsOffers() bool {
	return r.status == StatusOpen || r.status == StatusOffersReceived
}

func (r *Request) IsOwnedBy(actorID uuid.UUID) bool {
	return r.requesterID == actorID
}

func (r *Request) DeadlinePassed(now time.Time) bool {
	return r.closesAt != nil && !now.Before(*r.closesAt)
}

func (r *Request) ID() uuid.UUID          { return r.id }
func (r *Request) RequesterID() uuid.UUID { return r.requesterID }
func (r *Request) FlowKind() FlowKind     { return r.flowKind }
func (r *Request) Terms() Terms           { return r.terms }
func (r *Request) Status() Status         { return r.status }
func (r *Request) ClosesAt() *time.Time   { return r.closesAt }
func (r *Request) CreatedAt() time.Time   { return r.createdAt }
func (r *Request) UpdatedAt() time.Time   { return r.updatedAt }
