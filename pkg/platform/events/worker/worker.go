// Package worker relays committed outbox entries to the broker. It runs
// outside every protocol operation's transaction, so downstream consumers are
// never coupled synchronously into the core.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"prophecy/pkg/platform/events"
)

// OutboxSource is the slice of the Postgres event store the relay needs.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]events.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Producer publishes one payload to the topic for a category.
type Producer interface {
	Publish(ctx context.Context, category events.Category, key string, payload []byte) error
}

// Relay polls the outbox and publishes entries in insertion order. Delivery
// is at-least-once: a crash between publish and MarkPublished re-sends.
type Relay struct {
	source    OutboxSource
	producer  Producer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*Relay)

// WithInterval overrides the poll interval (default 500ms).
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize overrides the per-poll batch size (default 100).
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewRelay(source OutboxSource, producer Producer, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		producer:  producer,
		logger:    logger,
		interval:  500 * time.Millisecond,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.RelayOnce(ctx); err != nil {
				r.logger.Error("outbox relay pass failed", "error", err.Error())
			}
		}
	}
}

// RelayOnce publishes one batch. Exposed for tests and drain-on-shutdown.
func (r *Relay) RelayOnce(ctx context.Context) error {
	entries, err := r.source.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return err
	}
	published := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if err := r.producer.Publish(ctx, entry.Category, string(entry.Type), entry.Payload); err != nil {
			// Stop the batch to preserve insertion order on retry.
			r.logger.Error("publish outbox entry failed",
				"entry_id", entry.ID.String(),
				"type", string(entry.Type),
				"error", err.Error(),
			)
			break
		}
		published = append(published, entry.ID)
	}
	if len(published) == 0 {
		return nil
	}
	return r.source.MarkPublished(ctx, published)
}
