package memstore

import (
	"context"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"
	"fleet-match/internal/infra"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
)

type stagedOp int

const (
	opUpdateRequest stagedOp = iota
	opInsertOffer
	opUpdateOffer
	opInsertBooking
)

type staged struct {
	op            stagedOp
	request       *request.Request
	expectRequest request.Status
	offer         *offer.Offer
	expectOffer   offer.Status
	booking       *booking.Booking
}

// tx runs under the request's mutex, so reads see committed state that no
// other writer of this request can change mid-section. Writes are staged and
// applied together after fn returns nil.
type tx struct {
	store     *Store
	requestID uuid.UUID
	writes    []staged
}

var _ shared.Tx = (*tx)(nil)

func (t *tx) Request(_ context.Context) (*request.Request, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	row, ok := t.store.requests[t.requestID]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "request not found")
	}
	return rowToRequest(row), nil
}

func (t *tx) Offer(_ context.Context, offerID uuid.UUID) (*offer.Offer, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	row, ok := t.store.offers[offerID]
	if !ok || row.requestID != t.requestID {
		return nil, infra.NewRepoErr(infra.KindNotFound, "offer not found")
	}
	return rowToOffer(row), nil
}

func (t *tx) Offers(_ context.Context) ([]*offer.Offer, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	var offers []*offer.Offer
	for _, row := range t.store.offers {
		if row.requestID == t.requestID {
			offers = append(offers, rowToOffer(row))
		}
	}
	sortOffers(offers)
	return offers, nil
}

func (t *tx) UpdateRequest(_ context.Context, req *request.Request, expect request.Status) error {
	t.writes = append(t.writes, staged{op: opUpdateRequest, request: req, expectRequest: expect})
	return nil
}

func (t *tx) InsertOffer(_ context.Context, o *offer.Offer) error {
	t.writes = append(t.writes, staged{op: opInsertOffer, offer: o})
	return nil
}

func (t *tx) UpdateOffer(_ context.Context, o *offer.Offer, expect offer.Status) error {
	t.writes = append(t.writes, staged{op: opUpdateOffer, offer: o, expectOffer: expect})
	return nil
}

func (t *tx) InsertBooking(_ context.Context, b *booking.Booking) error {
	t.writes = append(t.writes, staged{op: opInsertBooking, booking: b})
	return nil
}

// apply validates every conditional guard first, then writes; a failed guard
// means the whole section leaves no trace.
func (t *tx) apply() error {
	if len(t.writes) == 0 {
		return nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for _, w := range t.writes {
		switch w.op {
		case opUpdateRequest:
			row, ok := t.store.requests[w.request.ID()]
			if !ok {
				return infra.NewRepoErr(infra.KindNotFound, "request not found")
			}
			if row.status != w.expectRequest.String() {
				return infra.NewRepoErr(infra.KindConflict, "request state changed concurrently")
			}
		case opInsertOffer:
			if _, exists := t.store.offers[w.offer.ID()]; exists {
				return infra.NewRepoErr(infra.KindDuplicate, "offer already exists")
			}
		case opUpdateOffer:
			row, ok := t.store.offers[w.offer.ID()]
			if !ok {
				return infra.NewRepoErr(infra.KindNotFound, "offer not found")
			}
			if row.status != w.expectOffer.String() {
				return infra.NewRepoErr(infra.KindConflict, "offer state changed concurrently")
			}
		case opInsertBooking:
			if _, exists := t.store.bookingByRequest[w.booking.RequestID()]; exists {
				return infra.NewRepoErr(infra.KindConflict, "booking already exists for request")
			}
		}
	}

	for _, w := range t.writes {
		switch w.op {
		case opUpdateRequest:
			prev := t.store.requests[w.request.ID()]
			t.store.requests[w.request.ID()] = requestToRow(w.request, prev.version+1)
		case opInsertOffer:
			t.store.offers[w.offer.ID()] = offerToRow(w.offer, 1)
		case opUpdateOffer:
			prev := t.store.offers[w.offer.ID()]
			t.store.offers[w.offer.ID()] = offerToRow(w.offer, prev.version+1)
		case opInsertBooking:
			t.store.bookings[w.booking.ID()] = bookingToRow(w.booking, 1)
			t.store.bookingByRequest[w.booking.RequestID()] = w.booking.ID()
		}
	}

	return nil
}
