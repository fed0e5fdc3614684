// Package service mints proof records in response to resolution events.
// Minting is idempotent per market: a duplicate mint request finds the
// record already present and stops, so at-least-once delivery is safe.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"prophecy/internal/mint/models"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/events"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
	"prophecy/pkg/platform/tx"
	"prophecy/pkg/requestcontext"
)

var proofRecordsMinted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "prophecy_proof_records_minted_total",
	Help: "Total proof records minted for resolved markets",
})

// Store persists the minter configuration and proof records.
type Store interface {
	CreateConfig(ctx context.Context, config *models.MinterConfig) error
	FindConfig(ctx context.Context) (*models.MinterConfig, error)
	ExecuteConfig(ctx context.Context,
		validate func(*models.MinterConfig) error,
		mutate func(*models.MinterConfig)) (*models.MinterConfig, error)
	CreateRecord(ctx context.Context, record *models.ProofRecord) error
	FindRecordByMarket(ctx context.Context, market keys.Address) (*models.ProofRecord, error)
	ListRecords(ctx context.Context) ([]*models.ProofRecord, error)
}

// EventPublisher appends events to the ledger event log.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service owns the minting subsystem.
type Service struct {
	store     Store
	publisher EventPublisher
	runner    tx.Runner
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithRunner(r tx.Runner) Option {
	return func(s *Service) { s.runner = r }
}

// SetPublisher injects the publisher after construction. The in-process
// delivery path is a cycle: the publisher carries the mint sink and the mint
// service emits through the publisher. Call before serving traffic.
func (s *Service) SetPublisher(p EventPublisher) { s.publisher = p }

func New(store Store, publisher EventPublisher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		runner:    tx.NewMutexRunner(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates the minter configuration singleton.
func (s *Service) Initialize(ctx context.Context, authority id.Identity) (*models.MinterConfig, error) {
	config, err := models.NewMinterConfig(authority, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateConfig(ctx, config); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "minter already initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create minter config")
	}
	s.logger.InfoContext(ctx, "minter initialized", "authority", authority.String())
	return config, nil
}

// UpdateAuthority rotates the minter authority. Only the current authority
// may rotate.
func (s *Service) UpdateAuthority(ctx context.Context, newAuthority id.Identity) (*models.MinterConfig, error) {
	caller := requestcontext.CallerID(ctx)
	var config *models.MinterConfig
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		c, err := s.store.ExecuteConfig(txCtx,
			func(c *models.MinterConfig) error {
				if caller != c.Authority {
					return dErrors.New(dErrors.CodeNotMinter, "only the minter authority can rotate it")
				}
				return c.CanUpdateAuthority(newAuthority)
			},
			func(c *models.MinterConfig) { c.ApplyUpdateAuthority(newAuthority, now) },
		)
		if err != nil {
			return wrapMintErr(err)
		}
		config = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "minter authority rotated", "authority", newAuthority.String())
	return config, nil
}

// HandleMintRequest mints the proof record for a resolution event. Events of
// any other type are ignored; a market that already has a record is a no-op.
func (s *Service) HandleMintRequest(ctx context.Context, event events.Event) error {
	if event.Type != events.EventProofRecordMintRequested {
		return nil
	}
	if event.Outcome == nil {
		return dErrors.New(dErrors.CodeBadRequest, "mint request is missing the outcome")
	}

	return s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.store.FindRecordByMarket(txCtx, event.Market); err == nil {
			s.logger.DebugContext(txCtx, "proof record already minted",
				"market_id", event.MarketID.String(),
			)
			return nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check proof record")
		}

		now := requestcontext.Now(txCtx)
		record, err := models.NewProofRecord(event.Market, event.MarketID, *event.Outcome, event.TranscriptHash, now)
		if err != nil {
			return err
		}
		config, err := s.store.FindConfig(txCtx)
		if err != nil {
			return wrapMintErr(err)
		}
		if err := config.CanCountMint(); err != nil {
			return err
		}

		if err := s.store.CreateRecord(txCtx, record); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proof record")
		}
		if _, err := s.store.ExecuteConfig(txCtx,
			func(c *models.MinterConfig) error { return c.CanCountMint() },
			func(c *models.MinterConfig) { c.ApplyCountMint(now) },
		); err != nil {
			return wrapMintErr(err)
		}

		if s.publisher != nil {
			if err := s.publisher.Emit(txCtx, events.Event{
				Type:           events.EventProofRecordMinted,
				Timestamp:      now,
				Market:         record.Market,
				MarketID:       record.MarketID,
				Outcome:        event.Outcome,
				TranscriptHash: record.TranscriptHash,
				MetadataURI:    record.MetadataURI,
				RequestID:      event.RequestID,
			}); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
			}
		}

		proofRecordsMinted.Inc()
		s.logger.InfoContext(txCtx, "proof record minted",
			"market_id", record.MarketID.String(),
			"outcome", record.Outcome,
		)
		return nil
	})
}

// GetConfig loads the minter configuration.
func (s *Service) GetConfig(ctx context.Context) (*models.MinterConfig, error) {
	config, err := s.store.FindConfig(ctx)
	if err != nil {
		return nil, wrapMintErr(err)
	}
	return config, nil
}

// GetRecord loads the proof record for a market.
func (s *Service) GetRecord(ctx context.Context, marketID id.MarketID) (*models.ProofRecord, error) {
	record, err := s.store.FindRecordByMarket(ctx, keys.Market(marketID))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no proof record for this market")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proof record")
	}
	return record, nil
}

// ListRecords returns all proof records ordered by mint time.
func (s *Service) ListRecords(ctx context.Context) ([]*models.ProofRecord, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proof records")
	}
	return records, nil
}

func wrapMintErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "minter not initialized")
	}
	return err
}
