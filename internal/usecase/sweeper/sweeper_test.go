//go:build unit

package sweeper_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fleet-match/internal/gateway"
	"fleet-match/internal/infra/memstore"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/pkg/config"
	"fleet-match/internal/usecase/commands"
	"fleet-match/internal/usecase/sweeper"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []gateway.Event
}

func (n *recordingNotifier) Publish(_ context.Context, event gateway.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) eventsOfType(t gateway.EventType) []gateway.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []gateway.Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	clk      *clock.MockClock
	notifier *recordingNotifier
	sweeper  *sweeper.Sweeper
	requests commands.RequestCommands
	offers   commands.OfferCommands
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	clk := clock.NewMockClock(baseTime)
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.SweeperConfig{Interval: 50 * time.Millisecond, BatchSize: 100}

	return &fixture{
		store:    store,
		clk:      clk,
		notifier: notifier,
		sweeper:  sweeper.New(store, notifier, clk, logger, cfg),
		requests: commands.NewRequestCommands(store, clk),
		offers:   commands.NewOfferCommands(store, notifier, clk, logger),
	}
}

func (f *fixture) createRequest(t *testing.T, closesAt *time.Time) uuid.UUID {
	t.Helper()
	view, err := f.requests.Create(context.Background(), commands.CreateRequestParams{
		RequesterID: uuid.New(),
		FlowKind:    "tender",
		Terms:       json.RawMessage(`{"scope": "fleet"}`),
		ClosesAt:    closesAt,
	})
	require.NoError(t, err)
	return view.ID
}

func (f *fixture) submitOffer(t *testing.T, requestID uuid.UUID, ttl time.Duration) uuid.UUID {
	t.Helper()
	view, err := f.offers.Submit(context.Background(), commands.SubmitOfferParams{
		RequestID:  requestID,
		ProviderID: uuid.New(),
		Terms:      json.RawMessage(`{"price": 10}`),
		TTL:        ttl,
	})
	require.NoError(t, err)
	return view.ID
}

func TestSweepOffers(t *testing.T) {
	t.Run("retires offers past their ttl, leaves live ones", func(t *testing.T) {
		f := newFixture(t)
		reqID := f.createRequest(t, nil)
		shortID := f.submitOffer(t, reqID, time.Minute)
		longID := f.submitOffer(t, reqID, time.Hour)

		f.clk.Add(2 * time.Minute)
		require.NoError(t, f.sweeper.Sweep(context.Background()))

		ctx := context.Background()
		short, err := f.store.Reads().OfferByID(ctx, shortID)
		require.NoError(t, err)
		assert.Equal(t, "EXPIRED", short.Status().String())

		long, err := f.store.Reads().OfferByID(ctx, longID)
		require.NoError(t, err)
		assert.Equal(t, "PENDING", long.Status().String())
	})

	t.Run("a sweep pass is idempotent", func(t *testing.T) {
		f := newFixture(t)
		reqID := f.createRequest(t, nil)
		offerID := f.submitOffer(t, reqID, time.Minute)

		f.clk.Add(2 * time.Minute)
		require.NoError(t, f.sweeper.Sweep(context.Background()))
		require.NoError(t, f.sweeper.Sweep(context.Background()))

		got, err := f.store.Reads().OfferByID(context.Background(), offerID)
		require.NoError(t, err)
		assert.Equal(t, "EXPIRED", got.Status().String())
	})

	t.Run("withdrawn offers are not swept", func(t *testing.T) {
		f := newFixture(t)
		reqID := f.createRequest(t, nil)

		view, err := f.offers.Submit(context.Background(), commands.SubmitOfferParams{
			RequestID:  reqID,
			ProviderID: uuid.New(),
			Terms:      json.RawMessage(`{"price": 10}`),
			TTL:        time.Minute,
		})
		require.NoError(t, err)
		_, err = f.offers.Withdraw(context.Background(), view.ID, view.ProviderID)
		require.NoError(t, err)

		f.clk.Add(2 * time.Minute)
		require.NoError(t, f.sweeper.Sweep(context.Background()))

		got, err := f.store.Reads().OfferByID(context.Background(), view.ID)
		require.NoError(t, err)
		assert.Equal(t, "WITHDRAWN", got.Status().String())
	})
}

func TestSweepRequests(t *testing.T) {
	t.Run("expires a request past its deadline with its pending offers", func(t *testing.T) {
		f := newFixture(t)
		closesAt := baseTime.Add(time.Minute)
		reqID := f.createRequest(t, &closesAt)
		offerID := f.submitOffer(t, reqID, time.Hour)

		f.clk.Set(closesAt.Add(time.Second))
		require.NoError(t, f.sweeper.Sweep(context.Background()))

		ctx := context.Background()
		req, err := f.store.Reads().RequestByID(ctx, reqID)
		require.NoError(t, err)
		assert.Equal(t, "EXPIRED", req.Status().String())

		o, err := f.store.Reads().OfferByID(ctx, offerID)
		require.NoError(t, err)
		assert.Equal(t, "EXPIRED", o.Status().String())

		events := f.notifier.eventsOfType(gateway.EventRequestExpired)
		require.Len(t, events, 1)
		assert.Equal(t, reqID, events[0].RequestID)
		assert.Len(t, events[0].Participants, 2)
	})

	t.Run("requests without a deadline are never swept", func(t *testing.T) {
		f := newFixture(t)
		reqID := f.createRequest(t, nil)

		f.clk.Add(1000 * time.Hour)
		require.NoError(t, f.sweeper.Sweep(context.Background()))

		req, err := f.store.Reads().RequestByID(context.Background(), reqID)
		require.NoError(t, err)
		assert.Equal(t, "OPEN", req.Status().String())
	})

	t.Run("a live request is untouched before its deadline", func(t *testing.T) {
		f := newFixture(t)
		closesAt := baseTime.Add(time.Hour)
		reqID := f.createRequest(t, &closesAt)

		f.clk.Add(time.Minute)
		require.NoError(t, f.sweeper.Sweep(context.Background()))

		req, err := f.store.Reads().RequestByID(context.Background(), reqID)
		require.NoError(t, err)
		assert.Equal(t, "OPEN", req.Status().String())
		assert.Empty(t, f.notifier.eventsOfType(gateway.EventRequestExpired))
	})

	t.Run("sweeping twice publishes one expiry event", func(t *testing.T) {
		f := newFixture(t)
		closesAt := baseTime.Add(time.Minute)
		reqID := f.createRequest(t, &closesAt)

		f.clk.Set(closesAt.Add(time.Second))
		require.NoError(t, f.sweeper.Sweep(context.Background()))
		require.NoError(t, f.sweeper.Sweep(context.Background()))

		events := f.notifier.eventsOfType(gateway.EventRequestExpired)
		require.Len(t, events, 1)
		assert.Equal(t, reqID, events[0].RequestID)
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
