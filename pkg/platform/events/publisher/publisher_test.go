package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prophecy/pkg/platform/events"
	eventsmemory "prophecy/pkg/platform/events/store/memory"
	"prophecy/pkg/platform/keys"
)

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (s *recordingSink) Deliver(_ context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) seen() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitRoutesByCategory(t *testing.T) {
	store := eventsmemory.NewInMemoryStore()
	ledgerSink := &recordingSink{}
	mintSink := &recordingSink{}
	pub := NewPublisher(store,
		WithLogger(discardLogger()),
		WithSink(events.CategoryLedger, ledgerSink),
		WithSink(events.CategoryMint, mintSink),
	)

	ctx := context.Background()
	require.NoError(t, pub.Emit(ctx, events.Event{Type: events.EventMarketResolved, Market: keys.Market("mkt-1")}))
	require.NoError(t, pub.Emit(ctx, events.Event{Type: events.EventProofRecordMintRequested, Market: keys.Market("mkt-1")}))

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.Len(t, ledgerSink.seen(), 1)
	assert.Equal(t, events.EventMarketResolved, ledgerSink.seen()[0].Type)
	require.Len(t, mintSink.seen(), 1)
	assert.Equal(t, events.EventProofRecordMintRequested, mintSink.seen()[0].Type)
}

func TestSinkFailureDoesNotFailEmit(t *testing.T) {
	store := eventsmemory.NewInMemoryStore()
	sink := &recordingSink{err: errors.New("broker down")}
	pub := NewPublisher(store,
		WithLogger(discardLogger()),
		WithSink(events.CategoryLedger, sink),
	)

	err := pub.Emit(context.Background(), events.Event{Type: events.EventCredStaked, Market: keys.Market("mkt-1")})
	require.NoError(t, err)

	// The durable write still happened.
	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAsyncEmitDrainsOnClose(t *testing.T) {
	store := eventsmemory.NewInMemoryStore()
	sink := &recordingSink{}
	pub := NewPublisher(store,
		WithLogger(discardLogger()),
		WithSink(events.CategoryLedger, sink),
		WithAsyncBuffer(16),
	)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Emit(ctx, events.Event{Type: events.EventMarketCreated, Market: keys.Market("mkt-async")}))
	}
	pub.Close()

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Len(t, sink.seen(), 5)

	// Close is idempotent.
	pub.Close()
}

func TestListFiltersAndOrdersByMarket(t *testing.T) {
	store := eventsmemory.NewInMemoryStore()
	pub := NewPublisher(store, WithLogger(discardLogger()))

	ctx := context.Background()
	base := time.Now()
	require.NoError(t, pub.Emit(ctx, events.Event{Type: events.EventMarketCreated, Market: keys.Market("mkt-a"), Timestamp: base}))
	require.NoError(t, pub.Emit(ctx, events.Event{Type: events.EventMarketCreated, Market: keys.Market("mkt-b"), Timestamp: base.Add(time.Second)}))
	require.NoError(t, pub.Emit(ctx, events.Event{Type: events.EventMarketResolved, Market: keys.Market("mkt-a"), Timestamp: base.Add(2 * time.Second)}))

	got, err := pub.List(ctx, keys.Market("mkt-a"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events.EventMarketCreated, got[0].Type)
	assert.Equal(t, events.EventMarketResolved, got[1].Type)
}
