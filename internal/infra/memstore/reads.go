package memstore

import (
	"context"
	"sort"
	"time"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"
	"fleet-match/internal/infra"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
)

type reads struct {
	store *Store
}

var _ shared.Reads = (*reads)(nil)

func (r *reads) RequestByID(_ context.Context, id uuid.UUID) (*request.Request, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	row, ok := r.store.requests[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "request not found")
	}
	return rowToRequest(row), nil
}

func (r *reads) RequestsByRequester(_ context.Context, requesterID uuid.UUID) ([]*request.Request, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*request.Request
	for _, row := range r.store.requests {
		if row.requesterID == requesterID {
			out = append(out, rowToRequest(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().Before(out[j].CreatedAt())
		}
		return out[i].ID().String() < out[j].ID().String()
	})
	return out, nil
}

func (r *reads) OfferByID(_ context.Context, id uuid.UUID) (*offer.Offer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	row, ok := r.store.offers[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "offer not found")
	}
	return rowToOffer(row), nil
}

func (r *reads) OffersForRequest(_ context.Context, requestID uuid.UUID) ([]*offer.Offer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*offer.Offer
	for _, row := range r.store.offers {
		if row.requestID == requestID {
			out = append(out, rowToOffer(row))
		}
	}
	sortOffers(out)
	return out, nil
}

func (r *reads) BookingByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	row, ok := r.store.bookings[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	return rowToBooking(row), nil
}

func (r *reads) BookingByRequest(_ context.Context, requestID uuid.UUID) (*booking.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	id, ok := r.store.bookingByRequest[requestID]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	return rowToBooking(r.store.bookings[id]), nil
}

func (r *reads) PendingOffersExpiringBefore(_ context.Context, deadline time.Time, limit int) ([]shared.OfferRef, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var refs []shared.OfferRef
	for _, row := range r.store.offers {
		if row.status != offer.StatusPending.String() {
			continue
		}
		if row.expiresAt.After(deadline) {
			continue
		}
		refs = append(refs, shared.OfferRef{OfferID: row.id, RequestID: row.requestID})
		if limit > 0 && len(refs) >= limit {
			break
		}
	}
	return refs, nil
}

func (r *reads) OpenRequestsDeadlinePassed(_ context.Context, deadline time.Time, limit int) ([]uuid.UUID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var ids []uuid.UUID
	for _, row := range r.store.requests {
		if request.Status(row.status).IsTerminal() {
			continue
		}
		if row.closesAt == nil || row.closesAt.After(deadline) {
			continue
		}
		ids = append(ids, row.id)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// sortOffers orders by submission time ascending, offer ID as the stable
// tie-break.
func sortOffers(offers []*offer.Offer) {
	sort.Slice(offers, func(i, j int) bool {
		if !offers[i].SubmittedAt().Equal(offers[j].SubmittedAt()) {
			return offers[i].SubmittedAt().Before(offers[j].SubmittedAt())
		}
		return offers[i].ID().String() < offers[j].ID().String()
	})
}
