// Package memstore is the in-memory implementation of the engine's store
// contract. It backs unit tests and doubles as an embeddable store for
// single-process deployments. The per-request critical section is a mutex
// keyed by request ID; conditional updates check a version-counted row under
// that mutex, and a section's writes are staged so an error applies nothing.
package memstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"
	"fleet-match/internal/infra"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
)

type requestRow struct {
	id          uuid.UUID
	requesterID uuid.UUID
	flowKind    string
	terms       json.RawMessage
	status      string
	closesAt    *time.Time
	createdAt   time.Time
	updatedAt   time.Time
	version     int64
}

type offerRow struct {
	id          uuid.UUID
	requestID   uuid.UUID
	providerID  uuid.UUID
	terms       json.RawMessage
	status      string
	submittedAt time.Time
	expiresAt   time.Time
	updatedAt   time.Time
	version     int64
}

type bookingRow struct {
	id          uuid.UUID
	requestID   uuid.UUID
	offerID     uuid.UUID
	requesterID uuid.UUID
	providerID  uuid.UUID
	status      string
	confirmedAt time.Time
	updatedAt   time.Time
	version     int64
}

type Store struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*requestRow
	offers   map[uuid.UUID]*offerRow
	bookings map[uuid.UUID]*bookingRow
	// bookingByRequest backs the one-booking-per-request guarantee.
	bookingByRequest map[uuid.UUID]uuid.UUID

	lockMu sync.Mutex
	// locks grow with the number of requests ever seen; fine for a test
	// double and for single-process lifetimes.
	locks map[uuid.UUID]*sync.Mutex
}

func New() *Store {
	return &Store{
		requests:         make(map[uuid.UUID]*requestRow),
		offers:           make(map[uuid.UUID]*offerRow),
		bookings:         make(map[uuid.UUID]*bookingRow),
		bookingByRequest: make(map[uuid.UUID]uuid.UUID),
		locks:            make(map[uuid.UUID]*sync.Mutex),
	}
}

var _ shared.Store = (*Store)(nil)

func (s *Store) requestLock(requestID uuid.UUID) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[requestID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[requestID] = l
	}
	return l
}

func (s *Store) Within(ctx context.Context, requestID uuid.UUID, fn func(ctx context.Context, tx shared.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return infra.WrapRepoErr(infra.KindUnavailable, "context cancelled", err)
	}

	lock := s.requestLock(requestID)
	lock.Lock()
	defer lock.Unlock()

	t := &tx{store: s, requestID: requestID}
	if err := fn(ctx, t); err != nil {
		return err
	}
	return t.apply()
}

func (s *Store) CreateRequest(_ context.Context, req *request.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID()]; exists {
		return infra.NewRepoErr(infra.KindDuplicate, "request already exists")
	}
	s.requests[req.ID()] = requestToRow(req, 1)
	return nil
}

func (s *Store) UpdateBooking(_ context.Context, b *booking.Booking, expect booking.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.bookings[b.ID()]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	if row.status != expect.String() {
		return infra.NewRepoErr(infra.KindConflict, "booking state changed concurrently")
	}
	next := bookingToRow(b, row.version+1)
	s.bookings[b.ID()] = next
	return nil
}

func (s *Store) Reads() shared.Reads {
	return &reads{store: s}
}

func requestToRow(r *request.Request, version int64) *requestRow {
	return &requestRow{
		id:          r.ID(),
		requesterID: r.RequesterID(),
		flowKind:    r.FlowKind().String(),
		terms:       r.Terms().Raw(),
		status:      r.Status().String(),
		closesAt:    r.ClosesAt(),
		createdAt:   r.CreatedAt(),
		updatedAt:   r.UpdatedAt(),
		version:     version,
	}
}

func rowToRequest(row *requestRow) *request.Request {
	return request.ReconstructRequest(
		row.id,
		row.requesterID,
		request.FlowKind(row.flowKind),
		request.ReconstructTerms(row.terms),
		request.Status(row.status),
		row.closesAt,
		row.createdAt,
		row.updatedAt,
	)
}

func offerToRow(o *offer.Offer, version int64) *offerRow {
	return &offerRow{
		id:          o.ID(),
		requestID:   o.RequestID(),
		providerID:  o.ProviderID(),
		terms:       o.Terms().Raw(),
		status:      o.Status().String(),
		submittedAt: o.SubmittedAt(),
		expiresAt:   o.ExpiresAt(),
		updatedAt:   o.UpdatedAt(),
		version:     version,
	}
}

func rowToOffer(row *offerRow) *offer.Offer {
	return offer.ReconstructOffer(
		row.id,
		row.requestID,
		row.providerID,
		offer.ReconstructTerms(row.terms),
		offer.Status(row.status),
		row.submittedAt,
		row.expiresAt,
		row.updatedAt,
	)
}

func bookingToRow(b *booking.Booking, version int64) *bookingRow {
	return &bookingRow{
		id:          b.ID(),
		requestID:   b.RequestID(),
		offerID:     b.OfferID(),
		requesterID: b.RequesterID(),
		providerID:  b.ProviderID(),
		status:      b.Status().String(),
		confirmedAt: b.ConfirmedAt(),
		updatedAt:   b.UpdatedAt(),
		version:     version,
	}
}

func rowToBooking(row *bookingRow) *booking.Booking {
	return booking.ReconstructBooking(
		row.id,
		row.requestID,
		row.offerID,
		row.requesterID,
		row.providerID,
		booking.Status(row.status),
		row.confirmedAt,
		row.updatedAt,
	)
}
