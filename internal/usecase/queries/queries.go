package queries

import (
	"context"

	"fleet-match/internal/infra"
	"fleet-match/internal/pkg/errs"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound = errs.New("request not found")
	ErrOfferNotFound   = errs.New("offer not found")
	ErrBookingNotFound = errs.New("booking not found")
)

type RequestQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*RequestView, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*RequestView, error)
}

type OfferQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*OfferView, error)
	// ListForRequest returns offers by submission time ascending, offer ID as
	// the stable tie-break.
	ListForRequest(ctx context.Context, requestID uuid.UUID) ([]*OfferView, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	GetByRequest(ctx context.Context, requestID uuid.UUID) (*BookingView, error)
}

type requestQueriesImpl struct {
	reads shared.Reads
}

func NewRequestQueries(store shared.Store) RequestQueries {
	return &requestQueriesImpl{reads: store.Reads()}
}

func (q *requestQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*RequestView, error) {
	r, err := q.reads.RequestByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return NewRequestView(r), nil
}

func (q *requestQueriesImpl) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*RequestView, error) {
	rs, err := q.reads.RequestsByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	views := make([]*RequestView, len(rs))
	for i, r := range rs {
		views[i] = NewRequestView(r)
	}
	return views, nil
}

type offerQueriesImpl struct {
	reads shared.Reads
}

func NewOfferQueries(store shared.Store) OfferQueries {
	return &offerQueriesImpl{reads: store.Reads()}
}

func (q *offerQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*OfferView, error) {
	o, err := q.reads.OfferByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return NewOfferView(o), nil
}

func (q *offerQueriesImpl) ListForRequest(ctx context.Context, requestID uuid.UUID) ([]*OfferView, error) {
	if _, err := q.reads.RequestByID(ctx, requestID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	os, err := q.reads.OffersForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	views := make([]*OfferView, len(os))
	for i, o := range os {
		views[i] = NewOfferView(o)
	}
	return views, nil
}

type bookingQueriesImpl struct {
	reads shared.Reads
}

func NewBookingQueries(store shared.Store) BookingQueries {
	return &bookingQueriesImpl{reads: store.Reads()}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	b, err := q.reads.BookingByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return NewBookingView(b), nil
}

func (q *bookingQueriesImpl) GetByRequest(ctx context.Context, requestID uuid.UUID) (*BookingView, error) {
	b, err := q.reads.BookingByRequest(ctx, requestID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return NewBookingView(b), nil
}
