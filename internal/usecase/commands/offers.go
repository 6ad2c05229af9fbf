package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"
	"fleet-match/internal/gateway"
	"fleet-match/internal/infra"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/pkg/errs"
	"fleet-match/internal/pkg/metrics"
	"fleet-match/internal/usecase/queries"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
)

type SubmitOfferParams struct {
	RequestID  uuid.UUID
	ProviderID uuid.UUID
	Terms      json.RawMessage
	TTL        time.Duration
}

type OfferCommands interface {
	Submit(ctx context.Context, params SubmitOfferParams) (*queries.OfferView, error)
	Withdraw(ctx context.Context, offerID, providerID uuid.UUID) (*queries.OfferView, error)
}

type offerCommandsImpl struct {
	store    shared.Store
	notifier gateway.NotificationGateway
	clock    clock.Clock
	logger   *slog.Logger
}

func NewOfferCommands(
	store shared.Store,
	notifier gateway.NotificationGateway,
	clk clock.Clock,
	logger *slog.Logger,
) OfferCommands {
	return &offerCommandsImpl{
		store:    store,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

func (c *offerCommandsImpl) Submit(ctx context.Context, params SubmitOfferParams) (*queries.OfferView, error) {
	terms, err := offer.NewTerms(params.Terms)
	if err != nil {
		return nil, errs.Mark(err, ErrValidation)
	}

	var (
		submitted *offer.Offer
		flowKind  request.FlowKind
		requester uuid.UUID
	)

	err = c.store.Within(ctx, params.RequestID, func(ctx context.Context, tx shared.Tx) error {
		req, err := tx.Request(ctx)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, ErrRequestNotFound)
			}
			return err
		}
		if !req.AcceptsOffers() {
			return ErrInvalidState
		}
		now := c.clock.Now()
		if req.DeadlinePassed(now) {
			// Deadline lapsed but the sweeper has not caught up yet; the
			// request is as good as expired for new offers.
			return ErrExpired
		}

		siblings, err := tx.Offers(ctx)
		if err != nil {
			return err
		}
		for _, o := range siblings {
			if o.IsPending() && o.IsOwnedBy(params.ProviderID) {
				return ErrDuplicateOffer
			}
		}

		o, err := offer.NewOffer(c.clock, params.RequestID, params.ProviderID, terms, params.TTL)
		if err != nil {
			return errs.Mark(err, ErrValidation)
		}
		if err := tx.InsertOffer(ctx, o); err != nil {
			return err
		}

		if req.Status() == request.StatusOpen {
			if err := req.MarkOffersReceived(now); err != nil {
				return errs.Mark(err, ErrInvalidState)
			}
			if err := tx.UpdateRequest(ctx, req, request.StatusOpen); err != nil {
				return err
			}
		}

		submitted = o
		flowKind = req.FlowKind()
		requester = req.RequesterID()
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrInvalidState)
	}

	metrics.IncOfferSubmitted(flowKind.String())
	c.publish(ctx, gateway.Event{
		Type:         gateway.EventOfferSubmitted,
		RequestID:    params.RequestID,
		OfferID:      ptrTo(submitted.ID()),
		Participants: []uuid.UUID{requester, params.ProviderID},
		OccurredAt:   c.clock.Now(),
	})

	return queries.NewOfferView(submitted), nil
}

func (c *offerCommandsImpl) Withdraw(ctx context.Context, offerID, providerID uuid.UUID) (*queries.OfferView, error) {
	existing, err := c.store.Reads().OfferByID(ctx, offerID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrOfferNotFound)
		}
		return nil, mapStoreErr(err, ErrInvalidState)
	}

	var withdrawn *offer.Offer

	err = c.store.Within(ctx, existing.RequestID(), func(ctx context.Context, tx shared.Tx) error {
		o, err := tx.Offer(ctx, offerID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, ErrOfferNotFound)
			}
			return err
		}
		if !o.IsOwnedBy(providerID) {
			return ErrNotOwner
		}
		if !o.IsPending() {
			return ErrInvalidState
		}
		if err := o.Withdraw(c.clock.Now()); err != nil {
			return errs.Mark(err, ErrInvalidState)
		}
		if err := tx.UpdateOffer(ctx, o, offer.StatusPending); err != nil {
			return err
		}
		withdrawn = o
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrInvalidState)
	}

	return queries.NewOfferView(withdrawn), nil
}

func (c *offerCommandsImpl) publish(ctx context.Context, event gateway.Event) {
	if err := c.notifier.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish event", "event_type", string(event.Type), "error", err)
	}
}

func ptrTo[T any](v T) *T {
	return &v
}
