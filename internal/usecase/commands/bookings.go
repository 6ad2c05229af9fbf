package commands

import (
	"context"
	"time"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/infra"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/pkg/errs"
	"fleet-match/internal/usecase/queries"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
)

// BookingCommands drive the engagement's own state machine after matching:
// CONFIRMED → IN_PROGRESS → COMPLETED, or CANCELLED. Either participant may
// transition it.
type BookingCommands interface {
	Start(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error)
	Complete(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error)
	Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error)
}

type bookingCommandsImpl struct {
	store shared.Store
	clock clock.Clock
}

func NewBookingCommands(store shared.Store, clk clock.Clock) BookingCommands {
	return &bookingCommandsImpl{
		store: store,
		clock: clk,
	}
}

func (c *bookingCommandsImpl) Start(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error) {
	return c.transition(ctx, bookingID, actorID, (*booking.Booking).Start)
}

func (c *bookingCommandsImpl) Complete(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error) {
	return c.transition(ctx, bookingID, actorID, (*booking.Booking).Complete)
}

func (c *bookingCommandsImpl) Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error) {
	return c.transition(ctx, bookingID, actorID, (*booking.Booking).Cancel)
}

func (c *bookingCommandsImpl) transition(
	ctx context.Context,
	bookingID, actorID uuid.UUID,
	apply func(*booking.Booking, time.Time) error,
) (*queries.BookingView, error) {
	b, err := c.store.Reads().BookingByID(ctx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrBookingNotFound)
		}
		return nil, mapStoreErr(err, ErrInvalidState)
	}
	if !b.InvolvesActor(actorID) {
		return nil, ErrNotOwner
	}

	prev := b.Status()
	if err := apply(b, c.clock.Now()); err != nil {
		return nil, errs.Mark(err, ErrInvalidState)
	}
	if err := c.store.UpdateBooking(ctx, b, prev); err != nil {
		return nil, mapStoreErr(err, ErrInvalidState)
	}

	return queries.NewBookingView(b), nil
}
