package commands

import (
	"context"
	"encoding/json"
	"time"

	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"
	"fleet-match/internal/infra"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/pkg/errs"
	"fleet-match/internal/usecase/queries"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
)

type CreateRequestParams struct {
	RequesterID uuid.UUID
	FlowKind    string
	Terms       json.RawMessage
	ClosesAt    *time.Time
}

type RequestCommands interface {
	Create(ctx context.Context, params CreateRequestParams) (*queries.RequestView, error)
	// Close retires a request that was not matched. Cancel selects the
	// CANCELLED terminal state instead of CLOSED. Pending offers are rejected
	// in the same commit so providers always end on a terminal state.
	Close(ctx context.Context, requestID, requesterID uuid.UUID, cancel bool, reason string) (*queries.RequestView, error)
}

type requestCommandsImpl struct {
	store shared.Store
	clock clock.Clock
}

func NewRequestCommands(store shared.Store, clk clock.Clock) RequestCommands {
	return &requestCommandsImpl{
		store: store,
		clock: clk,
	}
}

func (c *requestCommandsImpl) Create(ctx context.Context, params CreateRequestParams) (*queries.RequestView, error) {
	terms, err := request.NewTerms(params.Terms)
	if err != nil {
		return nil, errs.Mark(err, ErrValidation)
	}

	req, err := request.NewRequest(c.clock, params.RequesterID, request.FlowKind(params.FlowKind), terms, params.ClosesAt)
	if err != nil {
		return nil, errs.Mark(err, ErrValidation)
	}

	if err := c.store.CreateRequest(ctx, req); err != nil {
		return nil, mapStoreErr(err, ErrValidation)
	}

	return queries.NewRequestView(req), nil
}

func (c *requestCommandsImpl) Close(ctx context.Context, requestID, requesterID uuid.UUID, cancel bool, _ string) (*queries.RequestView, error) {
	var closed *request.Request

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

		now := c.clock.Now()
		prev := req.Status()
		transition := req.Close
		if cancel {
			transition = req.Cancel
		}
		if err := transition(now); err != nil {
			return errs.Mark(err, ErrInvalidState)
		}
		if err := tx.UpdateRequest(ctx, req, prev); err != nil {
			return err
		}

		siblings, err := tx.Offers(ctx)
		if err != nil {
			return err
		}
		for _, o := range siblings {
			if !o.IsPending() {
				continue
			}
			if err := o.Reject(now); err != nil {
				return errs.Mark(err, ErrInvalidState)
			}
			if err := tx.UpdateOffer(ctx, o, offer.StatusPending); err != nil {
				return err
			}
		}

		closed = req
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrInvalidState)
	}

	return queries.NewRequestView(closed), nil
}
