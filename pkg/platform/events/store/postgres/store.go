package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"prophecy/pkg/platform/events"
	"prophecy/pkg/platform/keys"
	txcontext "prophecy/pkg/platform/tx"
)

// Store implements events.Store using the transactional outbox pattern: the
// event row commits or rolls back with the protocol operation that emitted
// it, and the outbox worker relays committed rows to the broker. Use the
// publisher in sync mode with this store so Append runs inside the
// operation's transaction.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes the event to the outbox table for broker publishing.
func (s *Store) Append(ctx context.Context, event events.Event) error {
	payload, err := events.MarshalPayload(event)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	aggregateType := "market"
	aggregateID := event.Market.String()
	if event.Market.IsZero() {
		aggregateType = "vault"
		aggregateID = event.User.String()
	}

	query := `
		INSERT INTO event_outbox (id, aggregate_type, aggregate_id, event_type, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		aggregateType,
		aggregateID,
		string(event.Type),
		string(event.Type.Category()),
		payload,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished returns up to limit committed-but-unpublished entries in
// insertion order. Run a single relay per deployment; duplicate delivery on
// overlap is tolerated because the broker contract is at-least-once.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]events.OutboxEntry, error) {
	query := `
		SELECT id, event_type, category, payload
		FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []events.OutboxEntry
	for rows.Next() {
		var e events.OutboxEntry
		var typ, cat string
		if err := rows.Scan(&e.ID, &typ, &cat, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.Type = events.EventType(typ)
		e.Category = events.Category(cat)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListByMarket returns the events recorded for a market in insertion order.
// Published rows are retained, so the outbox doubles as the durable event
// history.
func (s *Store) ListByMarket(ctx context.Context, market keys.Address) ([]events.Event, error) {
	query := `
		SELECT payload
		FROM event_outbox
		WHERE aggregate_type = 'market' AND aggregate_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, market.String())
	if err != nil {
		return nil, fmt.Errorf("list market events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan market event: %w", err)
		}
		event, err := events.UnmarshalPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("decode market event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// MarkPublished stamps entries as relayed so they are not delivered twice by
// this relay (the broker contract downstream is still at-least-once).
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	query := `UPDATE event_outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	_, err := s.db.ExecContext(ctx, query, time.Now(), pq.Array(strIDs))
	if err != nil {
		return fmt.Errorf("mark outbox entries published: %w", err)
	}
	return nil
}
