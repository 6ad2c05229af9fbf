package postgres

import (
	"context"
	"errors"
	"log/slog"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"
	"fleet-match/internal/infra"
	"fleet-match/internal/pkg/config"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgErrCodeUniqueViolation = "23505"

// Store implements the engine's store contract on PostgreSQL. The per-request
// critical section is a row lock (SELECT ... FOR UPDATE on the request);
// conditional transitions are status-guarded UPDATEs, which is the
// conditional-update primitive the exclusivity guarantee is built on.
type Store struct {
	pool   *pgxpool.Pool
	policy RetryPolicy
	logger *slog.Logger
}

func NewStore(pool *pgxpool.Pool, cfg config.SweeperConfig, logger *slog.Logger) *Store {
	return &Store{
		pool: pool,
		policy: RetryPolicy{
			MaxRetries:   cfg.RetryMax,
			InitialDelay: cfg.RetryInitial,
			MaxDelay:     cfg.RetryMaxDelay,
		},
		logger: logger,
	}
}

var _ shared.Store = (*Store)(nil)

func (s *Store) Within(ctx context.Context, requestID uuid.UUID, fn func(ctx context.Context, tx shared.Tx) error) error {
	return runInTx(ctx, s.pool, s.policy, s.logger, func(pgtx pgx.Tx) error {
		// Pin the single-writer section to the request row. A request that
		// does not exist yet has nothing to serialize against; fn surfaces
		// the NOT_FOUND itself.
		var pinned uuid.UUID
		err := pgtx.QueryRow(ctx, `SELECT id FROM requests WHERE id = $1 FOR UPDATE`, requestID).Scan(&pinned)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return infra.WrapRepoErr(infra.KindDBFailure, "failed to lock request", err)
		}
		return fn(ctx, &tx{pgtx: pgtx, requestID: requestID})
	})
}

func (s *Store) CreateRequest(ctx context.Context, req *request.Request) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO requests (id, requester_id, flow_kind, terms, status, closes_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID(), req.RequesterID(), req.FlowKind().String(), []byte(req.Terms().Raw()),
		req.Status().String(), req.ClosesAt(), req.CreatedAt(), req.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr(infra.KindDuplicate, "request already exists", err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to create request", err)
	}
	return nil
}

func (s *Store) UpdateBooking(ctx context.Context, b *booking.Booking, expect booking.Status) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		b.ID(), b.Status().String(), b.UpdatedAt(), expect.String(),
	)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "booking state changed concurrently")
	}
	return nil
}

func (s *Store) Reads() shared.Reads {
	return &reads{pool: s.pool}
}

// tx implements the conditional transitions inside one database transaction
// holding the request row lock.
type tx struct {
	pgtx      pgx.Tx
	requestID uuid.UUID
}

var _ shared.Tx = (*tx)(nil)

func (t *tx) Request(ctx context.Context) (*request.Request, error) {
	row := t.pgtx.QueryRow(ctx, `
		SELECT id, requester_id, flow_kind, terms, status, closes_at, created_at, updated_at
		FROM requests WHERE id = $1`, t.requestID)
	return scanRequest(row)
}

func (t *tx) Offer(ctx context.Context, offerID uuid.UUID) (*offer.Offer, error) {
	row := t.pgtx.QueryRow(ctx, `
		SELECT id, request_id, provider_id, terms, status, submitted_at, expires_at, updated_at
		FROM offers WHERE id = $1 AND request_id = $2`, offerID, t.requestID)
	return scanOffer(row)
}

func (t *tx) Offers(ctx context.Context) ([]*offer.Offer, error) {
	rows, err := t.pgtx.Query(ctx, `
		SELECT id, request_id, provider_id, terms, status, submitted_at, expires_at, updated_at
		FROM offers WHERE request_id = $1
		ORDER BY submitted_at ASC, id ASC`, t.requestID)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to list offers", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (t *tx) UpdateRequest(ctx context.Context, req *request.Request, expect request.Status) error {
	tag, err := t.pgtx.Exec(ctx, `
		UPDATE requests SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		req.ID(), req.Status().String(), req.UpdatedAt(), expect.String(),
	)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to update request", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "request state changed concurrently")
	}
	return nil
}

func (t *tx) InsertOffer(ctx context.Context, o *offer.Offer) error {
	_, err := t.pgtx.Exec(ctx, `
		INSERT INTO offers (id, request_id, provider_id, terms, status, submitted_at, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID(), o.RequestID(), o.ProviderID(), []byte(o.Terms().Raw()),
		o.Status().String(), o.SubmittedAt(), o.ExpiresAt(), o.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr(infra.KindDuplicate, "offer already exists", err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to insert offer", err)
	}
	return nil
}

func (t *tx) UpdateOffer(ctx context.Context, o *offer.Offer, expect offer.Status) error {
	tag, err := t.pgtx.Exec(ctx, `
		UPDATE offers SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		o.ID(), o.Status().String(), o.UpdatedAt(), expect.String(),
	)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to update offer", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "offer state changed concurrently")
	}
	return nil
}

func (t *tx) InsertBooking(ctx context.Context, b *booking.Booking) error {
	// bookings.request_id is UNIQUE: the schema backs the one-booking-per-
	// request guarantee even across processes.
	_, err := t.pgtx.Exec(ctx, `
		INSERT INTO bookings (id, request_id, offer_id, requester_id, provider_id, status, confirmed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID(), b.RequestID(), b.OfferID(), b.RequesterID(), b.ProviderID(),
		b.Status().String(), b.ConfirmedAt(), b.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr(infra.KindConflict, "booking already exists for request", err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to insert booking", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation
}
