package shared

import (
	"context"
	"time"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"

	"github.com/google/uuid"
)

// Store is the persistence collaborator contract. Within is the per-request
// single-writer critical section: every state transition touching a request
// or its offers runs inside it, and the whole transition set either commits
// or leaves no trace. Implementations back it with a row lock (postgres) or
// a per-request mutex (memstore); the engine itself never locks.
type Store interface {
	// Within serializes fn against every other writer of the same request.
	// An error from fn rolls the whole transition set back.
	Within(ctx context.Context, requestID uuid.UUID, fn func(ctx context.Context, tx Tx) error) error

	// CreateRequest inserts a brand-new request outside any critical section.
	CreateRequest(ctx context.Context, req *request.Request) error

	// UpdateBooking applies a booking lifecycle transition conditionally on
	// its current state. Bookings have their own single-row state machine and
	// never rejoin a request's critical section after creation.
	UpdateBooking(ctx context.Context, b *booking.Booking, expect booking.Status) error

	Reads() Reads
}

// Tx exposes conditional transitions scoped to the locked request. Every
// update names the state it expects to replace ("transition O to S only if
// its current state is P"); a mismatch fails with a CONFLICT kind and aborts
// the section.
type Tx interface {
	Request(ctx context.Context) (*request.Request, error)
	Offer(ctx context.Context, offerID uuid.UUID) (*offer.Offer, error)
	Offers(ctx context.Context) ([]*offer.Offer, error)

	UpdateRequest(ctx context.Context, req *request.Request, expect request.Status) error
	InsertOffer(ctx context.Context, o *offer.Offer) error
	UpdateOffer(ctx context.Context, o *offer.Offer, expect offer.Status) error
	InsertBooking(ctx context.Context, b *booking.Booking) error
}

// OfferRef locates a pending offer together with the request that scopes its
// critical section.
type OfferRef struct {
	OfferID   uuid.UUID
	RequestID uuid.UUID
}

// Reads are the query-side lookups. They run outside critical sections and
// may observe state that a concurrent writer immediately invalidates;
// commands re-read inside Within before acting.
type Reads interface {
	RequestByID(ctx context.Context, id uuid.UUID) (*request.Request, error)
	RequestsByRequester(ctx context.Context, requesterID uuid.UUID) ([]*request.Request, error)

	OfferByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error)
	// OffersForRequest returns offers ordered by submission time ascending,
	// offer ID as the stable tie-break.
	OffersForRequest(ctx context.Context, requestID uuid.UUID) ([]*offer.Offer, error)

	BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	BookingByRequest(ctx context.Context, requestID uuid.UUID) (*booking.Booking, error)

	// PendingOffersExpiringBefore feeds the expiry sweep.
	PendingOffersExpiringBefore(ctx context.Context, deadline time.Time, limit int) ([]OfferRef, error)
	// OpenRequestsDeadlinePassed lists non-terminal requests whose closesAt
	// has passed.
	OpenRequestsDeadlinePassed(ctx context.Context, deadline time.Time, limit int) ([]uuid.UUID, error)
}
