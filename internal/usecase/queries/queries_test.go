//go:build unit

package queries_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fleet-match/internal/domain/request"
	"fleet-match/internal/infra/memstore"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/usecase/queries"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seedRequest(t *testing.T, store *memstore.Store, requesterID uuid.UUID, createdAt time.Time) *request.Request {
	t.Helper()
	clk := clock.NewMockClock(createdAt)
	terms, err := request.NewTerms(json.RawMessage(`{"budget": 100}`))
	require.NoError(t, err)
	req, err := request.NewRequest(clk, requesterID, request.FlowRental, terms, nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateRequest(context.Background(), req))
	return req
}

func TestRequestQueries(t *testing.T) {
	t.Run("get by id round-trips the stored request", func(t *testing.T) {
		store := memstore.New()
		req := seedRequest(t, store, uuid.New(), baseTime)
		q := queries.NewRequestQueries(store)

		got, err := q.GetByID(context.Background(), req.ID())
		require.NoError(t, err)

		want := queries.NewRequestView(req)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("request view mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		q := queries.NewRequestQueries(memstore.New())
		_, err := q.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, queries.ErrRequestNotFound)
	})

	t.Run("list by requester is scoped and ordered by creation", func(t *testing.T) {
		store := memstore.New()
		requesterID := uuid.New()
		first := seedRequest(t, store, requesterID, baseTime)
		second := seedRequest(t, store, requesterID, baseTime.Add(time.Minute))
		seedRequest(t, store, uuid.New(), baseTime)

		q := queries.NewRequestQueries(store)
		got, err := q.ListByRequester(context.Background(), requesterID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID(), got[0].ID)
		assert.Equal(t, second.ID(), got[1].ID)
	})
}

func TestOfferQueries(t *testing.T) {
	t.Run("listing offers of an unknown request fails", func(t *testing.T) {
		q := queries.NewOfferQueries(memstore.New())
		_, err := q.ListForRequest(context.Background(), uuid.New())
		assert.ErrorIs(t, err, queries.ErrRequestNotFound)
	})

	t.Run("a request without offers lists empty", func(t *testing.T) {
		store := memstore.New()
		req := seedRequest(t, store, uuid.New(), baseTime)
		q := queries.NewOfferQueries(store)

		got, err := q.ListForRequest(context.Background(), req.ID())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown offer", func(t *testing.T) {
		q := queries.NewOfferQueries(memstore.New())
		_, err := q.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, queries.ErrOfferNotFound)
	})
}

func TestBookingQueries(t *testing.T) {
	t.Run("unknown booking", func(t *testing.T) {
		q := queries.NewBookingQueries(memstore.New())
		_, err := q.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, queries.ErrBookingNotFound)

		_, err = q.GetByRequest(context.Background(), uuid.New())
		assert.ErrorIs(t, err, queries.ErrBookingNotFound)
	})
}
