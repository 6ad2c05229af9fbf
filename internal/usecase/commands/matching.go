package commands

import (
	"context"
	"errors"
	"log/slog"

	"fleet-match/internal/domain/booking"
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

type MatchingCommands interface {
	// Accept commits the whole transition set atomically: target offer
	// PENDING→ACCEPTED, every other pending sibling →REJECTED, the request
	// →MATCHED, plus the booking insert. Exactly one concurrent caller per
	// request can succeed; losers get ErrAlreadyMatched or ErrExpired.
	Accept(ctx context.Context, requestID, offerID, requesterID uuid.UUID) (*queries.BookingView, error)
	// Reject declines one pending offer without touching the request or its
	// other offers.
	Reject(ctx context.Context, requestID, offerID, requesterID uuid.UUID, reason string) (*queries.OfferView, error)
}

type matchingCommandsImpl struct {
	store    shared.Store
	factory  *booking.Factory
	notifier gateway.NotificationGateway
	ledger   gateway.LedgerGateway
	clock    clock.Clock
	logger   *slog.Logger
}

func NewMatchingCommands(
	store shared.Store,
	factory *booking.Factory,
	notifier gateway.NotificationGateway,
	ledger gateway.LedgerGateway,
	clk clock.Clock,
	logger *slog.Logger,
) MatchingCommands {
	return &matchingCommandsImpl{
		store:    store,
		factory:  factory,
		notifier: notifier,
		ledger:   ledger,
		clock:    clk,
		logger:   logger,
	}
}

func (c *matchingCommandsImpl) Accept(ctx context.Context, requestID, offerID, requesterID uuid.UUID) (*queries.BookingView, error) {
	var (
		created *booking.Booking
		event   booking.ConfirmedEvent
	)

	err := c.store.Within(ctx, requestID, func(ctx context.Context, tx shared.Tx) error {
		req, err := tx.Request(ctx)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, ErrRequestNotFound)
			}
			return err
		}
		if !req.IsOwnedBy(requesterID) {
			return ErrNotOwner
		}
		switch {
		case req.Status() == request.StatusMatched:
			return ErrAlreadyMatched
		case req.Status() == request.StatusExpired:
			return ErrExpired
		case req.Status().IsTerminal():
			return ErrInvalidState
		}

		target, err := tx.Offer(ctx, offerID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, ErrOfferNotFound)
			}
			return err
		}
		if !target.BelongsTo(requestID) {
			return ErrOfferNotFound
		}
		if target.Status() == offer.StatusExpired {
			return ErrExpired
		}
		if !target.IsPending() {
			return ErrInvalidState
		}

		now := c.clock.Now()
		// Lazy expiry: a past-deadline offer is never acceptable, even before
		// the sweeper retires it.
		if target.HasExpired(now) {
			return ErrExpired
		}

		siblings, err := tx.Offers(ctx)
		if err != nil {
			return err
		}

		if err := target.Accept(now); err != nil {
			return errs.Mark(err, ErrInvalidState)
		}
		if err := tx.UpdateOffer(ctx, target, offer.StatusPending); err != nil {
			return err
		}
		for _, sibling := range siblings {
			if sibling.ID() == target.ID() || !sibling.IsPending() {
				continue
			}
			if err := sibling.Reject(now); err != nil {
				return errs.Mark(err, ErrInvalidState)
			}
			if err := tx.UpdateOffer(ctx, sibling, offer.StatusPending); err != nil {
				return err
			}
		}

		prev := req.Status()
		if err := req.Match(now); err != nil {
			return errs.Mark(err, ErrInvalidState)
		}
		if err := tx.UpdateRequest(ctx, req, prev); err != nil {
			return err
		}

		b, ev, err := c.factory.CreateFromAcceptance(req, target)
		if err != nil {
			return errs.Mark(err, ErrInvalidState)
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}

		created = b
		event = ev
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyMatched), infra.IsKind(err, infra.KindConflict):
			metrics.IncAcceptance("lost_race")
		case errors.Is(err, ErrExpired):
			metrics.IncAcceptance("expired")
		default:
			metrics.IncAcceptance("rejected_input")
		}
		return nil, mapStoreErr(err, ErrAlreadyMatched)
	}

	metrics.IncAcceptance("committed")
	c.dispatchConfirmed(ctx, event)

	return queries.NewBookingView(created), nil
}

func (c *matchingCommandsImpl) Reject(ctx context.Context, requestID, offerID, requesterID uuid.UUID, reason string) (*queries.OfferView, error) {
	var rejected *offer.Offer

	err := c.store.Within(ctx, requestID, func(ctx context.Context, tx shared.Tx) error {
		req, err := tx.Request(ctx)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, ErrRequestNotFound)
			}
			return err
		}
		if !req.IsOwnedBy(requesterID) {
			return ErrNotOwner
		}

		target, err := tx.Offer(ctx, offerID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, ErrOfferNotFound)
			}
			return err
		}
		if !target.BelongsTo(requestID) {
			return ErrOfferNotFound
		}
		if !target.IsPending() {
			return ErrInvalidState
		}

		if err := target.Reject(c.clock.Now()); err != nil {
			return errs.Mark(err, ErrInvalidState)
		}
		if err := tx.UpdateOffer(ctx, target, offer.StatusPending); err != nil {
			return err
		}
		rejected = target
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrInvalidState)
	}

	if reason != "" {
		c.logger.Info("offer rejected by requester",
			"request_id", requestID.String(),
			"offer_id", offerID.String(),
			"reason", reason,
		)
	}

	return queries.NewOfferView(rejected), nil
}

func (c *matchingCommandsImpl) dispatchConfirmed(ctx context.Context, event booking.ConfirmedEvent) {
	err := c.notifier.Publish(ctx, gateway.Event{
		Type:         gateway.EventOfferAccepted,
		RequestID:    event.RequestID,
		OfferID:      ptrTo(event.OfferID),
		Participants: []uuid.UUID{event.RequesterID, event.ProviderID},
		OccurredAt:   c.clock.Now(),
	})
	if err != nil {
		c.logger.Warn("failed to publish acceptance event", "booking_id", event.BookingID.String(), "error", err)
	}

	err = c.ledger.RecordEngagement(ctx, gateway.Engagement{
		BookingID: event.BookingID,
		PayerID:   event.RequesterID,
		PayeeID:   event.ProviderID,
		Terms:     event.OfferTerms.Raw(),
	})
	if err != nil {
		c.logger.Warn("failed to record engagement", "booking_id", event.BookingID.String(), "error", err)
	}
}
