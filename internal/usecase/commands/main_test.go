//go:build unit

package commands_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/gateway"
	"fleet-match/internal/infra/memstore"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/usecase/commands"
	"fleet-match/internal/usecase/queries"

	"github.com/google/uuid"
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

type recordingLedger struct {
	mu          sync.Mutex
	engagements []gateway.Engagement
}

func (l *recordingLedger) RecordEngagement(_ context.Context, engagement gateway.Engagement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.engagements = append(l.engagements, engagement)
	return nil
}

func (l *recordingLedger) recorded() []gateway.Engagement {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]gateway.Engagement(nil), l.engagements...)
}

type fixture struct {
	store    *memstore.Store
	clk      *clock.MockClock
	notifier *recordingNotifier
	ledger   *recordingLedger

	requests commands.RequestCommands
	offers   commands.OfferCommands
	matching commands.MatchingCommands
	bookings commands.BookingCommands
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	clk := clock.NewMockClock(baseTime)
	notifier := &recordingNotifier{}
	ledger := &recordingLedger{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		store:    store,
		clk:      clk,
		notifier: notifier,
		ledger:   ledger,
		requests: commands.NewRequestCommands(store, clk),
		offers:   commands.NewOfferCommands(store, notifier, clk, logger),
		matching: commands.NewMatchingCommands(store, booking.NewFactory(clk), notifier, ledger, clk, logger),
		bookings: commands.NewBookingCommands(store, clk),
	}
}

func (f *fixture) createRequest(t *testing.T, requesterID uuid.UUID, closesAt *time.Time) *queries.RequestView {
	t.Helper()
	view, err := f.requests.Create(context.Background(), commands.CreateRequestParams{
		RequesterID: requesterID,
		FlowKind:    "maintenance",
		Terms:       json.RawMessage(`{"budget": 5000}`),
		ClosesAt:    closesAt,
	})
	require.NoError(t, err)
	return view
}

func (f *fixture) submitOffer(t *testing.T, requestID, providerID uuid.UUID, ttl time.Duration) *queries.OfferView {
	t.Helper()
	view, err := f.offers.Submit(context.Background(), commands.SubmitOfferParams{
		RequestID:  requestID,
		ProviderID: providerID,
		Terms:      json.RawMessage(`{"price": 120}`),
		TTL:        ttl,
	})
	require.NoError(t, err)
	return view
}
