// Package publisher fans ledger events out from protocol operations to the
// event store and any category sinks (broker producer, the minter handler).
// Operations call Emit and move on; delivery policy lives here.
package publisher

import (
	"context"
	"log/slog"
	"sync"

	"prophecy/pkg/platform/events"
	"prophecy/pkg/platform/keys"
)

// Sink receives events of one category after they have been persisted to the
// store. Sink failures are logged, never propagated into the emitting
// operation: the store append is the durable write, sinks are best-effort
// fan-out.
type Sink interface {
	Deliver(ctx context.Context, event events.Event) error
}

// ListStore is the optional read surface some stores expose; the publisher
// forwards it for indexer-style callers.
type ListStore interface {
	ListByMarket(ctx context.Context, market keys.Address) ([]events.Event, error)
}

// Publisher writes each event to the store and then to the sinks registered
// for its category. Synchronous by default; WithAsyncBuffer switches to a
// buffered channel drained by a background goroutine (events are dropped,
// with a log line, when the buffer is full).
type Publisher struct {
	store  events.Store
	sinks  map[events.Category][]Sink
	logger *slog.Logger

	inbox chan events.Event
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan events.Event, size)
		}
	}
}

// WithSink registers a sink for one event category. Multiple sinks per
// category are delivered in registration order.
func WithSink(category events.Category, sink Sink) Option {
	return func(p *Publisher) {
		p.sinks[category] = append(p.sinks[category], sink)
	}
}

// WithLogger sets the logger used for sink failures and dropped events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(store events.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		sinks:  make(map[events.Category][]Sink),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records the event. In sync mode the store append error is returned so
// the surrounding operation can abort; in async mode Emit never fails and a
// full buffer drops the event.
func (p *Publisher) Emit(ctx context.Context, event events.Event) error {
	if p.inbox == nil {
		return p.process(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.Warn("event buffer full, dropping event",
			"type", string(event.Type),
			"market_id", event.MarketID.String(),
		)
		return nil
	}
}

// List exposes the store's per-market read surface when available.
func (p *Publisher) List(ctx context.Context, market keys.Address) ([]events.Event, error) {
	ls, ok := p.store.(ListStore)
	if !ok {
		return nil, nil
	}
	return ls.ListByMarket(ctx, market)
}

// Close drains the async buffer and stops the background goroutine. Safe to
// call once; sync-mode publishers close trivially.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.inbox != nil {
		close(p.inbox)
		p.wg.Wait()
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.process(context.Background(), event); err != nil {
			p.logger.Error("failed to persist event",
				"type", string(event.Type),
				"error", err.Error(),
			)
		}
	}
}

func (p *Publisher) process(ctx context.Context, event events.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks[event.Type.Category()] {
		if err := sink.Deliver(ctx, event); err != nil {
			p.logger.Error("event sink delivery failed",
				"type", string(event.Type),
				"error", err.Error(),
			)
		}
	}
	return nil
}
