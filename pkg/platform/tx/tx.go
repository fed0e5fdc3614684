// Package tx carries transaction state through context and defines the
// Runner discipline protocol operations use for per-operation atomicity:
// either every record mutation of an operation is applied, or none are.
package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner executes a function atomically with respect to other protocol
// operations. The host-ledger model this system mirrors serializes
// conflicting calls globally; outside that runtime an equivalent
// serializable-transaction or single-writer discipline is substituted.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MutexRunner serializes operations behind a process-wide mutex. Paired with
// in-memory stores this reproduces the single-writer guarantee; services must
// still order fallible work before their first store write so a failure
// leaves no partial state.
type MutexRunner struct {
	mu sync.Mutex
}

func NewMutexRunner() *MutexRunner { return &MutexRunner{} }

func (r *MutexRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

// SQLRunner wraps each operation in a database transaction. Stores pick the
// transaction up from context via From, so the same store code serves both
// transactional and standalone calls.
type SQLRunner struct {
	db *sql.DB
}

func NewSQLRunner(db *sql.DB) *SQLRunner { return &SQLRunner{db: db} }

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Join an already-open transaction instead of opening a nested one.
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}
