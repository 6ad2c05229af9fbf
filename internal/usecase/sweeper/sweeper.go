package sweeper

import (
	"context"
	"log/slog"
	"time"

	"fleet-match/internal/domain/offer"
	"fleet-match/internal/gateway"
	"fleet-match/internal/infra"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/pkg/config"
	"fleet-match/internal/pkg/metrics"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
)

// Sweeper retires pending offers past their TTL and open requests past their
// closesAt deadline. Each retirement runs in the same per-request critical
// section accept uses, so whichever of accept or expire commits first wins
// and the other aborts with no side effect. A sweep is idempotent; re-running
// it over already-terminal rows is a no-op.
type Sweeper struct {
	store    shared.Store
	notifier gateway.NotificationGateway
	clock    clock.Clock
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func New(
	store shared.Store,
	notifier gateway.NotificationGateway,
	clk clock.Clock,
	logger *slog.Logger,
	cfg config.SweeperConfig,
) *Sweeper {
	return &Sweeper{
		store:    store,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
		interval: cfg.Interval,
		batch:    cfg.BatchSize,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", "interval", s.interval.String(), "batch_size", s.batch)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				metrics.IncSweepError()
				s.logger.Error("sweep pass failed", "error", err)
			}
		}
	}
}

// Sweep performs one pass. Individual per-request failures are logged and
// skipped; only listing failures abort the pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.clock.Now()

	refs, err := s.store.Reads().PendingOffersExpiringBefore(ctx, now, s.batch)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := s.expireOffer(ctx, ref, now); err != nil {
			metrics.IncSweepError()
			s.logger.Warn("failed to expire offer",
				"offer_id", ref.OfferID.String(),
				"request_id", ref.RequestID.String(),
				"error", err,
			)
		}
	}

	requestIDs, err := s.store.Reads().OpenRequestsDeadlinePassed(ctx, now, s.batch)
	if err != nil {
		return err
	}
	for _, id := range requestIDs {
		if err := s.expireRequest(ctx, id, now); err != nil {
			metrics.IncSweepError()
			s.logger.Warn("failed to expire request", "request_id", id.String(), "error", err)
		}
	}

	return nil
}

func (s *Sweeper) expireOffer(ctx context.Context, ref shared.OfferRef, now time.Time) error {
	err := s.store.Within(ctx, ref.RequestID, func(ctx context.Context, tx shared.Tx) error {
		o, err := tx.Offer(ctx, ref.OfferID)
		if err != nil {
			return err
		}
		// Lost the race to accept/withdraw: the offer is already terminal.
		if !o.IsPending() || !o.HasExpired(now) {
			return nil
		}
		if err := o.Expire(now); err != nil {
			return err
		}
		return tx.UpdateOffer(ctx, o, offer.StatusPending)
	})
	if infra.IsKind(err, infra.KindConflict) || infra.IsKind(err, infra.KindNotFound) {
		return nil
	}
	if err == nil {
		metrics.IncSweepExpired("offer")
	}
	return err
}

func (s *Sweeper) expireRequest(ctx context.Context, requestID uuid.UUID, now time.Time) error {
	var (
		expired      bool
		participants []uuid.UUID
	)

	err := s.store.Within(ctx, requestID, func(ctx context.Context, tx shared.Tx) error {
		req, err := tx.Request(ctx)
		if err != nil {
			return err
		}
		if req.Status().IsTerminal() || !req.DeadlinePassed(now) {
			return nil
		}

		prev := req.Status()
		if err := req.Expire(now); err != nil {
			return err
		}
		if err := tx.UpdateRequest(ctx, req, prev); err != nil {
			return err
		}

		// Pending offers on an expired request can never be accepted; retire
		// them in the same commit.
		siblings, err := tx.Offers(ctx)
		if err != nil {
			return err
		}
		participants = []uuid.UUID{req.RequesterID()}
		for _, o := range siblings {
			if !o.IsPending() {
				continue
			}
			if err := o.Expire(now); err != nil {
				return err
			}
			if err := tx.UpdateOffer(ctx, o, offer.StatusPending); err != nil {
				return err
			}
			participants = append(participants, o.ProviderID())
		}

		expired = true
		return nil
	})
	if infra.IsKind(err, infra.KindConflict) || infra.IsKind(err, infra.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !expired {
		return nil
	}

	metrics.IncSweepExpired("request")
	if pubErr := s.notifier.Publish(ctx, gateway.Event{
		Type:         gateway.EventRequestExpired,
		RequestID:    requestID,
		Participants: participants,
		OccurredAt:   now,
	}); pubErr != nil {
		s.logger.Warn("failed to publish expiry event", "request_id", requestID.String(), "error", pubErr)
	}

	return nil
}
