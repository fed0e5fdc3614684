package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"prophecy/internal/vault/models"
	id "prophecy/pkg/domain"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
	txcontext "prophecy/pkg/platform/tx"
)

// Postgres persists vaults with the derived address as primary key. Execute
// relies on SELECT ... FOR UPDATE inside the operation's transaction, so it
// must run under tx.SQLRunner.
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

func (s *Postgres) Create(ctx context.Context, vault *models.ReputationVault) error {
	query := `
		INSERT INTO reputation_vaults
			(address, owner, cred_balance, total_earned, total_staked, participation_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		vault.Address.String(), vault.Owner.String(),
		int64(vault.CredBalance), int64(vault.TotalEarned), int64(vault.TotalStaked),
		int64(vault.ParticipationCount), vault.CreatedAt, vault.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert vault: %w", err)
	}
	return nil
}

func (s *Postgres) FindByOwner(ctx context.Context, owner id.Identity) (*models.ReputationVault, error) {
	return s.find(ctx, owner, false)
}

func (s *Postgres) Execute(
	ctx context.Context,
	owner id.Identity,
	validate func(*models.ReputationVault) error,
	mutate func(*models.ReputationVault),
) (*models.ReputationVault, error) {
	vault, err := s.find(ctx, owner, true)
	if err != nil {
		return nil, err
	}
	if err := validate(vault); err != nil {
		return nil, err
	}
	mutate(vault)

	query := `
		UPDATE reputation_vaults
		SET cred_balance = $2, total_earned = $3, total_staked = $4,
		    participation_count = $5, updated_at = $6
		WHERE address = $1
	`
	_, err = s.conn(ctx).ExecContext(ctx, query,
		vault.Address.String(),
		int64(vault.CredBalance), int64(vault.TotalEarned), int64(vault.TotalStaked),
		int64(vault.ParticipationCount), vault.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update vault: %w", err)
	}
	return vault, nil
}

func (s *Postgres) find(ctx context.Context, owner id.Identity, forUpdate bool) (*models.ReputationVault, error) {
	query := `
		SELECT address, owner, cred_balance, total_earned, total_staked, participation_count, created_at, updated_at
		FROM reputation_vaults
		WHERE address = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var vault models.ReputationVault
	var addr, ownerStr string
	var balance, earned, staked, partCnt int64
	err := s.conn(ctx).QueryRowContext(ctx, query, keys.ReputationVault(owner).String()).Scan(
		&addr, &ownerStr, &balance, &earned, &staked, &partCnt,
		&vault.CreatedAt, &vault.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select vault: %w", err)
	}
	vault.Address = keys.Address(addr)
	vault.Owner = id.Identity(ownerStr)
	vault.CredBalance = id.Cred(balance)
	vault.TotalEarned = id.Cred(earned)
	vault.TotalStaked = id.Cred(staked)
	vault.ParticipationCount = uint64(partCnt)
	return &vault, nil
}
