//go:build unit

package memstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"
	"fleet-match/internal/infra"
	"fleet-match/internal/infra/memstore"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seedRequest(t *testing.T, store *memstore.Store) *request.Request {
	t.Helper()
	clk := clock.NewMockClock(baseTime)
	terms, err := request.NewTerms(json.RawMessage(`{"budget": 100}`))
	require.NoError(t, err)
	req, err := request.NewRequest(clk, uuid.New(), request.FlowMaintenance, terms, nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateRequest(context.Background(), req))
	return req
}

func seedOffer(t *testing.T, store *memstore.Store, requestID uuid.UUID) *offer.Offer {
	t.Helper()
	clk := clock.NewMockClock(baseTime)
	terms, err := offer.NewTerms(json.RawMessage(`{"price": 10}`))
	require.NoError(t, err)
	o, err := offer.NewOffer(clk, requestID, uuid.New(), terms, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Within(context.Background(), requestID, func(ctx context.Context, tx shared.Tx) error {
		return tx.InsertOffer(ctx, o)
	}))
	return o
}

func TestCreateRequest(t *testing.T) {
	store := memstore.New()
	req := seedRequest(t, store)

	got, err := store.Reads().RequestByID(context.Background(), req.ID())
	require.NoError(t, err)
	assert.Equal(t, req.ID(), got.ID())

	err = store.CreateRequest(context.Background(), req)
	assert.True(t, infra.IsKind(err, infra.KindDuplicate))
}

func TestConditionalUpdateGuards(t *testing.T) {
	t.Run("request update fails when expectation is stale", func(t *testing.T) {
		store := memstore.New()
		req := seedRequest(t, store)
		ctx := context.Background()

		require.NoError(t, req.Close(baseTime.Add(time.Minute)))
		err := store.Within(ctx, req.ID(), func(ctx context.Context, tx shared.Tx) error {
			return tx.UpdateRequest(ctx, req, request.StatusMatched)
		})
		assert.True(t, infra.IsKind(err, infra.KindConflict))

		// Guard failed, so the stored row is untouched.
		got, err := store.Reads().RequestByID(ctx, req.ID())
		require.NoError(t, err)
		assert.Equal(t, request.StatusOpen, got.Status())
	})

	t.Run("offer update fails when another writer got there first", func(t *testing.T) {
		store := memstore.New()
		req := seedRequest(t, store)
		o := seedOffer(t, store, req.ID())
		ctx := context.Background()

		withdrawn := *o
		require.NoError(t, (&withdrawn).Withdraw(baseTime.Add(time.Minute)))
		require.NoError(t, store.Within(ctx, req.ID(), func(ctx context.Context, tx shared.Tx) error {
			return tx.UpdateOffer(ctx, &withdrawn, offer.StatusPending)
		}))

		accepted := *o
		require.NoError(t, (&accepted).Accept(baseTime.Add(time.Minute)))
		err := store.Within(ctx, req.ID(), func(ctx context.Context, tx shared.Tx) error {
			return tx.UpdateOffer(ctx, &accepted, offer.StatusPending)
		})
		assert.True(t, infra.IsKind(err, infra.KindConflict))

		got, err := store.Reads().OfferByID(ctx, o.ID())
		require.NoError(t, err)
		assert.Equal(t, offer.StatusWithdrawn, got.Status())
	})
}

func TestWithinIsAllOrNothing(t *testing.T) {
	t.Run("fn error stages nothing", func(t *testing.T) {
		store := memstore.New()
		req := seedRequest(t, store)
		ctx := context.Background()

		boom := errors.New("boom")
		err := store.Within(ctx, req.ID(), func(ctx context.Context, tx shared.Tx) error {
			mutated := *req
			require.NoError(t, (&mutated).MarkOffersReceived(baseTime.Add(time.Second)))
			require.NoError(t, tx.UpdateRequest(ctx, &mutated, request.StatusOpen))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := store.Reads().RequestByID(ctx, req.ID())
		require.NoError(t, err)
		assert.Equal(t, request.StatusOpen, got.Status())
	})

	t.Run("one failed guard rolls back every staged write", func(t *testing.T) {
		store := memstore.New()
		req := seedRequest(t, store)
		o := seedOffer(t, store, req.ID())
		ctx := context.Background()

		err := store.Within(ctx, req.ID(), func(ctx context.Context, tx shared.Tx) error {
			accepted := *o
			require.NoError(t, (&accepted).Accept(baseTime.Add(time.Second)))
			require.NoError(t, tx.UpdateOffer(ctx, &accepted, offer.StatusPending))

			// Stale expectation: this guard fails at apply time.
			mutated := *req
			require.NoError(t, (&mutated).MarkOffersReceived(baseTime.Add(time.Second)))
			return tx.UpdateRequest(ctx, &mutated, request.StatusMatched)
		})
		assert.True(t, infra.IsKind(err, infra.KindConflict))

		gotOffer, err := store.Reads().OfferByID(ctx, o.ID())
		require.NoError(t, err)
		assert.Equal(t, offer.StatusPending, gotOffer.Status())
	})

	t.Run("cancelled context refuses the section", func(t *testing.T) {
		store := memstore.New()
		req := seedRequest(t, store)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := store.Within(ctx, req.ID(), func(_ context.Context, _ shared.Tx) error {
			t.Fatal("section should not run")
			return nil
		})
		assert.True(t, infra.IsKind(err, infra.KindUnavailable))
	})
}

func TestBookingUniquePerRequest(t *testing.T) {
	store := memstore.New()
	clk := clock.NewMockClock(baseTime)
	req := seedRequest(t, store)
	o := seedOffer(t, store, req.ID())
	ctx := context.Background()

	makeBooking := func(t *testing.T) *booking.Booking {
		t.Helper()
		accepted := *o
		require.NoError(t, (&accepted).Accept(clk.Now()))
		b, _, err := booking.NewFactory(clk).CreateFromAcceptance(req, &accepted)
		require.NoError(t, err)
		return b
	}

	first := makeBooking(t)
	require.NoError(t, store.Within(ctx, req.ID(), func(ctx context.Context, tx shared.Tx) error {
		return tx.InsertBooking(ctx, first)
	}))

	second := makeBooking(t)
	err := store.Within(ctx, req.ID(), func(ctx context.Context, tx shared.Tx) error {
		return tx.InsertBooking(ctx, second)
	})
	assert.True(t, infra.IsKind(err, infra.KindConflict))

	got, err := store.Reads().BookingByRequest(ctx, req.ID())
	require.NoError(t, err)
	assert.Equal(t, first.ID(), got.ID())
}

func TestUpdateBooking(t *testing.T) {
	store := memstore.New()
	clk := clock.NewMockClock(baseTime)
	req := seedRequest(t, store)
	o := seedOffer(t, store, req.ID())
	ctx := context.Background()

	accepted := *o
	require.NoError(t, (&accepted).Accept(clk.Now()))
	b, _, err := booking.NewFactory(clk).CreateFromAcceptance(req, &accepted)
	require.NoError(t, err)
	require.NoError(t, store.Within(ctx, req.ID(), func(ctx context.Context, tx shared.Tx) error {
		return tx.InsertBooking(ctx, b)
	}))

	started := *b
	require.NoError(t, (&started).Start(clk.Now()))
	require.NoError(t, store.UpdateBooking(ctx, &started, booking.StatusConfirmed))

	// Stale expectation now that the booking moved on.
	again := *b
	require.NoError(t, (&again).Cancel(clk.Now()))
	err = store.UpdateBooking(ctx, &again, booking.StatusConfirmed)
	assert.True(t, infra.IsKind(err, infra.KindConflict))
}

func TestReadsOrdering(t *testing.T) {
	store := memstore.New()
	req := seedRequest(t, store)
	ctx := context.Background()

	clk := clock.NewMockClock(baseTime)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		clk.Add(time.Second)
		terms, err := offer.NewTerms(json.RawMessage(`{"price": 10}`))
		require.NoError(t, err)
		o, err := offer.NewOffer(clk, req.ID(), uuid.New(), terms, time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Within(ctx, req.ID(), func(ctx context.Context, tx shared.Tx) error {
			return tx.InsertOffer(ctx, o)
		}))
		ids = append(ids, o.ID())
	}

	got, err := store.Reads().OffersForRequest(ctx, req.ID())
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, o := range got {
		assert.Equal(t, ids[i], o.ID())
	}
}
