package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"prophecy/internal/mint/models"
	id "prophecy/pkg/domain"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
	txcontext "prophecy/pkg/platform/tx"
)

// Postgres persists the minter configuration and proof records.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) conn(ctx context.Context) dbConn {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const uniqueViolation = "23505"

func (s *Postgres) CreateConfig(ctx context.Context, config *models.MinterConfig) error {
	query := `
		INSERT INTO minter_configs (address, authority, mints_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		config.Address.String(), config.Authority.String(),
		int64(config.MintsCount), config.CreatedAt, config.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert minter config: %w", err)
	}
	return nil
}

func (s *Postgres) FindConfig(ctx context.Context) (*models.MinterConfig, error) {
	return s.findConfig(ctx, false)
}

func (s *Postgres) ExecuteConfig(
	ctx context.Context,
	validate func(*models.MinterConfig) error,
	mutate func(*models.MinterConfig),
) (*models.MinterConfig, error) {
	config, err := s.findConfig(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := validate(config); err != nil {
		return nil, err
	}
	mutate(config)

	query := `
		UPDATE minter_configs
		SET authority = $2, mints_count = $3, updated_at = $4
		WHERE address = $1
	`
	_, err = s.conn(ctx).ExecContext(ctx, query,
		config.Address.String(), config.Authority.String(),
		int64(config.MintsCount), config.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update minter config: %w", err)
	}
	return config, nil
}

func (s *Postgres) findConfig(ctx context.Context, forUpdate bool) (*models.MinterConfig, error) {
	query := `
		SELECT address, authority, mints_count, created_at, updated_at
		FROM minter_configs
		WHERE address = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var config models.MinterConfig
	var addr, authority string
	var mints int64
	err := s.conn(ctx).QueryRowContext(ctx, query, keys.MinterConfig().String()).Scan(
		&addr, &authority, &mints, &config.CreatedAt, &config.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select minter config: %w", err)
	}
	config.Address = keys.Address(addr)
	config.Authority = id.Identity(authority)
	config.MintsCount = uint64(mints)
	return &config, nil
}

func (s *Postgres) CreateRecord(ctx context.Context, record *models.ProofRecord) error {
	query := `
		INSERT INTO proof_records
			(address, market, market_id, outcome, transcript_hash, metadata_uri, minted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		record.Address.String(), record.Market.String(), record.MarketID.String(),
		int16(record.Outcome), record.TranscriptHash, record.MetadataURI, record.MintedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert proof record: %w", err)
	}
	return nil
}

const recordSelect = `
	SELECT address, market, market_id, outcome, transcript_hash, metadata_uri, minted_at
	FROM proof_records
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ProofRecord, error) {
	var record models.ProofRecord
	var addr, market, marketID string
	var outcome int16
	err := row.Scan(&addr, &market, &marketID, &outcome,
		&record.TranscriptHash, &record.MetadataURI, &record.MintedAt)
	if err != nil {
		return nil, err
	}
	record.Address = keys.Address(addr)
	record.Market = keys.Address(market)
	record.MarketID = id.MarketID(marketID)
	record.Outcome = uint8(outcome)
	return &record, nil
}

func (s *Postgres) FindRecordByMarket(ctx context.Context, market keys.Address) (*models.ProofRecord, error) {
	query := recordSelect + " WHERE address = $1"
	record, err := scanRecord(s.conn(ctx).QueryRowContext(ctx, query, keys.ProofRecord(market).String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select proof record: %w", err)
	}
	return record, nil
}

// ListRecords returns all proof records ordered by mint time.
func (s *Postgres) ListRecords(ctx context.Context) ([]*models.ProofRecord, error) {
	query := recordSelect + " ORDER BY minted_at, market_id"
	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list proof records: %w", err)
	}
	defer rows.Close()

	var out []*models.ProofRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
