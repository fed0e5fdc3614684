package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"prophecy/internal/market/models"
	id "prophecy/pkg/domain"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
	txcontext "prophecy/pkg/platform/tx"
)

// Postgres persists markets and stakes with the derived address as primary
// key. Execute* rely on SELECT ... FOR UPDATE inside the operation's
// transaction, so the store must run under tx.SQLRunner.
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

func (s *Postgres) CreateMarket(ctx context.Context, market *models.Market) error {
	query := `
		INSERT INTO markets
			(address, market_id, creator, claim_ref, status, outcome, transcript_hash,
			 evidence_cids, total_staked_yes, total_staked_no, stake_count, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		market.Address.String(), market.MarketID.String(), market.Creator.String(),
		market.ClaimRef, string(market.Status), nullableOutcome(market.Outcome), market.TranscriptHash,
		pq.Array(market.EvidenceCIDs),
		int64(market.TotalStakedYes), int64(market.TotalStakedNo), int64(market.StakeCount),
		market.CreatedAt, market.ResolvedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert market: %w", err)
	}
	return nil
}

func (s *Postgres) FindMarket(ctx context.Context, address keys.Address) (*models.Market, error) {
	return s.findMarket(ctx, address, false)
}

// ListMarkets returns all markets ordered by creation time.
func (s *Postgres) ListMarkets(ctx context.Context) ([]*models.Market, error) {
	query := marketSelect + " ORDER BY created_at, market_id"
	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	defer rows.Close()

	var out []*models.Market
	for rows.Next() {
		market, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, market)
	}
	return out, rows.Err()
}

func (s *Postgres) ExecuteMarket(
	ctx context.Context,
	address keys.Address,
	validate func(*models.Market) error,
	mutate func(*models.Market),
) (*models.Market, error) {
	market, err := s.findMarket(ctx, address, true)
	if err != nil {
		return nil, err
	}
	if err := validate(market); err != nil {
		return nil, err
	}
	mutate(market)

	query := `
		UPDATE markets
		SET status = $2, outcome = $3, transcript_hash = $4, evidence_cids = $5,
		    total_staked_yes = $6, total_staked_no = $7, stake_count = $8, resolved_at = $9
		WHERE address = $1
	`
	_, err = s.conn(ctx).ExecContext(ctx, query,
		market.Address.String(),
		string(market.Status), nullableOutcome(market.Outcome), market.TranscriptHash,
		pq.Array(market.EvidenceCIDs),
		int64(market.TotalStakedYes), int64(market.TotalStakedNo), int64(market.StakeCount),
		market.ResolvedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update market: %w", err)
	}
	return market, nil
}

const marketSelect = `
	SELECT address, market_id, creator, claim_ref, status, outcome, transcript_hash,
	       evidence_cids, total_staked_yes, total_staked_no, stake_count, created_at, resolved_at
	FROM markets
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMarket(row rowScanner) (*models.Market, error) {
	var market models.Market
	var addr, marketID, creator, status string
	var outcome sql.NullInt16
	var transcript sql.NullString
	var cids pq.StringArray
	var yes, no, count int64
	var resolvedAt sql.NullTime
	err := row.Scan(
		&addr, &marketID, &creator, &market.ClaimRef, &status, &outcome, &transcript,
		&cids, &yes, &no, &count, &market.CreatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	market.Address = keys.Address(addr)
	market.MarketID = id.MarketID(marketID)
	market.Creator = id.Identity(creator)
	market.Status = models.Status(status)
	if outcome.Valid {
		o := uint8(outcome.Int16)
		market.Outcome = &o
	}
	if transcript.Valid {
		market.TranscriptHash = transcript.String
	}
	market.EvidenceCIDs = []string(cids)
	market.TotalStakedYes = id.Cred(yes)
	market.TotalStakedNo = id.Cred(no)
	market.StakeCount = uint64(count)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		market.ResolvedAt = &t
	}
	return &market, nil
}

func (s *Postgres) findMarket(ctx context.Context, address keys.Address, forUpdate bool) (*models.Market, error) {
	query := marketSelect + " WHERE address = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	market, err := scanMarket(s.conn(ctx).QueryRowContext(ctx, query, address.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select market: %w", err)
	}
	return market, nil
}

func nullableOutcome(outcome *uint8) any {
	if outcome == nil {
		return nil
	}
	return int16(*outcome)
}

func (s *Postgres) CreateStake(ctx context.Context, stake *models.CredStake) error {
	query := `
		INSERT INTO cred_stakes
			(address, market, staker, amount, direction, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		stake.Address.String(), stake.Market.String(), stake.Staker.String(),
		int64(stake.Amount), stake.Direction, stake.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert stake: %w", err)
	}
	return nil
}

func (s *Postgres) FindStake(ctx context.Context, address keys.Address) (*models.CredStake, error) {
	query := stakeSelect + " WHERE address = $1"
	stake, err := scanStake(s.conn(ctx).QueryRowContext(ctx, query, address.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select stake: %w", err)
	}
	return stake, nil
}

// ListStakesByMarket returns all stakes on a market ordered by creation time.
func (s *Postgres) ListStakesByMarket(ctx context.Context, market keys.Address) ([]*models.CredStake, error) {
	query := stakeSelect + " WHERE market = $1 ORDER BY created_at, staker"
	rows, err := s.conn(ctx).QueryContext(ctx, query, market.String())
	if err != nil {
		return nil, fmt.Errorf("list stakes: %w", err)
	}
	defer rows.Close()

	var out []*models.CredStake
	for rows.Next() {
		stake, err := scanStake(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, stake)
	}
	return out, rows.Err()
}

const stakeSelect = `
	SELECT address, market, staker, amount, direction, created_at
	FROM cred_stakes
`

func scanStake(row rowScanner) (*models.CredStake, error) {
	var stake models.CredStake
	var addr, market, staker string
	var amount int64
	err := row.Scan(&addr, &market, &staker, &amount, &stake.Direction, &stake.CreatedAt)
	if err != nil {
		return nil, err
	}
	stake.Address = keys.Address(addr)
	stake.Market = keys.Address(market)
	stake.Staker = id.Identity(staker)
	stake.Amount = id.Cred(amount)
	return &stake, nil
}
