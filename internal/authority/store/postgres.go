package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"prophecy/internal/authority/models"
	id "prophecy/pkg/domain"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
	txcontext "prophecy/pkg/platform/tx"
)

// Postgres persists the singleton records in dedicated single-row tables
// keyed by their constant derived addresses.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) conn(ctx context.Context) dbConn {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const uniqueViolation = "23505"

func (s *Postgres) CreateExecutor(ctx context.Context, executor *models.AgentExecutor) error {
	query := `
		INSERT INTO agent_executors (address, authority, markets_resolved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		executor.Address.String(), executor.Authority.String(),
		int64(executor.MarketsResolved), executor.CreatedAt, executor.UpdatedAt,
	)
	return translateInsertErr(err, "insert agent executor")
}

func (s *Postgres) FindExecutor(ctx context.Context) (*models.AgentExecutor, error) {
	return s.findExecutor(ctx, false)
}

func (s *Postgres) ExecuteExecutor(
	ctx context.Context,
	validate func(*models.AgentExecutor) error,
	mutate func(*models.AgentExecutor),
) (*models.AgentExecutor, error) {
	executor, err := s.findExecutor(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := validate(executor); err != nil {
		return nil, err
	}
	mutate(executor)

	query := `UPDATE agent_executors SET markets_resolved = $2, updated_at = $3 WHERE address = $1`
	if _, err := s.conn(ctx).ExecContext(ctx, query,
		executor.Address.String(), int64(executor.MarketsResolved), executor.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update agent executor: %w", err)
	}
	return executor, nil
}

func (s *Postgres) findExecutor(ctx context.Context, forUpdate bool) (*models.AgentExecutor, error) {
	query := `
		SELECT address, authority, markets_resolved, created_at, updated_at
		FROM agent_executors
		WHERE address = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var executor models.AgentExecutor
	var addr, authority string
	var resolved int64
	err := s.conn(ctx).QueryRowContext(ctx, query, keys.AgentExecutor().String()).Scan(
		&addr, &authority, &resolved, &executor.CreatedAt, &executor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select agent executor: %w", err)
	}
	executor.Address = keys.Address(addr)
	executor.Authority = id.Identity(authority)
	executor.MarketsResolved = uint64(resolved)
	return &executor, nil
}

func (s *Postgres) CreatePool(ctx context.Context, pool *models.InsightPool) error {
	query := `
		INSERT INTO insight_pools (address, authority, total_credits, distributions_count, last_distribution, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		pool.Address.String(), pool.Authority.String(),
		int64(pool.TotalCredits), int64(pool.DistributionsCount),
		pool.LastDistribution, pool.CreatedAt,
	)
	return translateInsertErr(err, "insert insight pool")
}

func (s *Postgres) FindPool(ctx context.Context) (*models.InsightPool, error) {
	return s.findPool(ctx, false)
}

func (s *Postgres) ExecutePool(
	ctx context.Context,
	validate func(*models.InsightPool) error,
	mutate func(*models.InsightPool),
) (*models.InsightPool, error) {
	pool, err := s.findPool(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := validate(pool); err != nil {
		return nil, err
	}
	mutate(pool)

	query := `
		UPDATE insight_pools
		SET total_credits = $2, distributions_count = $3, last_distribution = $4
		WHERE address = $1
	`
	if _, err := s.conn(ctx).ExecContext(ctx, query,
		pool.Address.String(), int64(pool.TotalCredits),
		int64(pool.DistributionsCount), pool.LastDistribution,
	); err != nil {
		return nil, fmt.Errorf("update insight pool: %w", err)
	}
	return pool, nil
}

func (s *Postgres) findPool(ctx context.Context, forUpdate bool) (*models.InsightPool, error) {
	query := `
		SELECT address, authority, total_credits, distributions_count, last_distribution, created_at
		FROM insight_pools
		WHERE address = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var pool models.InsightPool
	var addr, authority string
	var credits, count int64
	err := s.conn(ctx).QueryRowContext(ctx, query, keys.InsightPool().String()).Scan(
		&addr, &authority, &credits, &count, &pool.LastDistribution, &pool.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select insight pool: %w", err)
	}
	pool.Address = keys.Address(addr)
	pool.Authority = id.Identity(authority)
	pool.TotalCredits = id.Cred(credits)
	pool.DistributionsCount = uint64(count)
	return &pool, nil
}

func translateInsertErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
