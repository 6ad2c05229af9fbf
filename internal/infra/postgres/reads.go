package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"
	"fleet-match/internal/infra"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type reads struct {
	pool *pgxpool.Pool
}

var _ shared.Reads = (*reads)(nil)

func (r *reads) RequestByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, requester_id, flow_kind, terms, status, closes_at, created_at, updated_at
		FROM requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (r *reads) RequestsByRequester(ctx context.Context, requesterID uuid.UUID) ([]*request.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, requester_id, flow_kind, terms, status, closes_at, created_at, updated_at
		FROM requests WHERE requester_id = $1
		ORDER BY created_at ASC, id ASC`, requesterID)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to list requests", err)
	}
	defer rows.Close()

	var out []*request.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read requests", err)
	}
	return out, nil
}

func (r *reads) OfferByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, request_id, provider_id, terms, status, submitted_at, expires_at, updated_at
		FROM offers WHERE id = $1`, id)
	return scanOffer(row)
}

func (r *reads) OffersForRequest(ctx context.Context, requestID uuid.UUID) ([]*offer.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, request_id, provider_id, terms, status, submitted_at, expires_at, updated_at
		FROM offers WHERE request_id = $1
		ORDER BY submitted_at ASC, id ASC`, requestID)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to list offers", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *reads) BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, request_id, offer_id, requester_id, provider_id, status, confirmed_at, updated_at
		FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (r *reads) BookingByRequest(ctx context.Context, requestID uuid.UUID) (*booking.Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, request_id, offer_id, requester_id, provider_id, status, confirmed_at, updated_at
		FROM bookings WHERE request_id = $1`, requestID)
	return scanBooking(row)
}

func (r *reads) PendingOffersExpiringBefore(ctx context.Context, deadline time.Time, limit int) ([]shared.OfferRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, request_id FROM offers
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at ASC
		LIMIT $3`, offer.StatusPending.String(), deadline, limit)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to list expiring offers", err)
	}
	defer rows.Close()

	var refs []shared.OfferRef
	for rows.Next() {
		var ref shared.OfferRef
		if err := rows.Scan(&ref.OfferID, &ref.RequestID); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan offer ref", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read offer refs", err)
	}
	return refs, nil
}

func (r *reads) OpenRequestsDeadlinePassed(ctx context.Context, deadline time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM requests
		WHERE status IN ($1, $2) AND closes_at IS NOT NULL AND closes_at <= $3
		ORDER BY closes_at ASC
		LIMIT $4`,
		request.StatusOpen.String(), request.StatusOffersReceived.String(), deadline, limit)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to list expired requests", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan request id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read request ids", err)
	}
	return ids, nil
}

func scanRequest(row pgx.Row) (*request.Request, error) {
	var (
		id, requesterID      uuid.UUID
		flowKind, status     string
		terms                []byte
		closesAt             *time.Time
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &requesterID, &flowKind, &terms, &status, &closesAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "request not found")
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan request", err)
	}
	return request.ReconstructRequest(
		id, requesterID,
		request.FlowKind(flowKind),
		request.ReconstructTerms(json.RawMessage(terms)),
		request.Status(status),
		closesAt, createdAt, updatedAt,
	), nil
}

func scanOffer(row pgx.Row) (*offer.Offer, error) {
	var (
		id, requestID, providerID        uuid.UUID
		status                           string
		terms                            []byte
		submittedAt, expiresAt, updateAt time.Time
	)
	err := row.Scan(&id, &requestID, &providerID, &terms, &status, &submittedAt, &expiresAt, &updateAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "offer not found")
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan offer", err)
	}
	return offer.ReconstructOffer(
		id, requestID, providerID,
		offer.ReconstructTerms(json.RawMessage(terms)),
		offer.Status(status),
		submittedAt, expiresAt, updateAt,
	), nil
}

func collectOffers(rows pgx.Rows) ([]*offer.Offer, error) {
	var out []*offer.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read offers", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, requestID, offerID uuid.UUID
		requesterID, providerID uuid.UUID
		status                 string
		confirmedAt, updatedAt time.Time
	)
	err := row.Scan(&id, &requestID, &offerID, &requesterID, &providerID, &status, &confirmedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan booking", err)
	}
	return booking.ReconstructBooking(
		id, requestID, offerID, requesterID, providerID,
		booking.Status(status),
		confirmedAt, updatedAt,
	), nil
}
