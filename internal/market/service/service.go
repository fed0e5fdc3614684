// Package service orchestrates the market lifecycle: creation, staking,
// evidence, resolution by the executor authority, payout distribution and
// dispute flagging. Every operation validates fully before the first write so
// a failure never leaves partial state behind.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	authmodels "prophecy/internal/authority/models"
	marketmetrics "prophecy/internal/market/metrics"
	"prophecy/internal/market/models"
	vaultmodels "prophecy/internal/vault/models"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/events"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
	"prophecy/pkg/platform/tx"
	"prophecy/pkg/requestcontext"
)

var tracer = otel.Tracer("prophecy/market")

// MarketStore persists markets and stakes.
type MarketStore interface {
	CreateMarket(ctx context.Context, market *models.Market) error
	FindMarket(ctx context.Context, address keys.Address) (*models.Market, error)
	ListMarkets(ctx context.Context) ([]*models.Market, error)
	ExecuteMarket(ctx context.Context, address keys.Address,
		validate func(*models.Market) error,
		mutate func(*models.Market)) (*models.Market, error)
	CreateStake(ctx context.Context, stake *models.CredStake) error
	FindStake(ctx context.Context, address keys.Address) (*models.CredStake, error)
	ListStakesByMarket(ctx context.Context, market keys.Address) ([]*models.CredStake, error)
}

// VaultStore debits and credits reputation vaults inside market operations.
type VaultStore interface {
	FindByOwner(ctx context.Context, owner id.Identity) (*vaultmodels.ReputationVault, error)
	Execute(ctx context.Context, owner id.Identity,
		validate func(*vaultmodels.ReputationVault) error,
		mutate func(*vaultmodels.ReputationVault)) (*vaultmodels.ReputationVault, error)
}

// AuthorityStore resolves and updates the singleton authority records.
type AuthorityStore interface {
	FindExecutor(ctx context.Context) (*authmodels.AgentExecutor, error)
	ExecuteExecutor(ctx context.Context,
		validate func(*authmodels.AgentExecutor) error,
		mutate func(*authmodels.AgentExecutor)) (*authmodels.AgentExecutor, error)
	FindPool(ctx context.Context) (*authmodels.InsightPool, error)
	ExecutePool(ctx context.Context,
		validate func(*authmodels.InsightPool) error,
		mutate func(*authmodels.InsightPool)) (*authmodels.InsightPool, error)
}

// EventPublisher appends protocol events to the ledger event log.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// SnapshotCache accelerates market reads; writes evict.
type SnapshotCache interface {
	Get(ctx context.Context, address keys.Address) (*models.Market, error)
	Set(ctx context.Context, market *models.Market) error
	Invalidate(ctx context.Context, address keys.Address) error
}

// Service orchestrates market operations.
type Service struct {
	markets   MarketStore
	vaults    VaultStore
	authority AuthorityStore
	publisher EventPublisher
	cache     SnapshotCache
	runner    tx.Runner
	logger    *slog.Logger
	metrics   *marketmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *marketmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRunner(r tx.Runner) Option {
	return func(s *Service) { s.runner = r }
}

func WithCache(c SnapshotCache) Option {
	return func(s *Service) { s.cache = c }
}

// New constructs a Service.
func New(markets MarketStore, vaults VaultStore, authority AuthorityStore, publisher EventPublisher, opts ...Option) *Service {
	s := &Service{
		markets:   markets,
		vaults:    vaults,
		authority: authority,
		publisher: publisher,
		logger:    slog.Default(),
		runner:    tx.NewMutexRunner(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new market over a claim. The derived address is the
// uniqueness constraint: a second market with the same identifier conflicts.
func (s *Service) Create(ctx context.Context, marketID id.MarketID, claimRef string) (*models.Market, error) {
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	var market *models.Market
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		m, err := models.NewMarket(marketID, caller, claimRef, now)
		if err != nil {
			return err
		}
		if err := s.markets.CreateMarket(txCtx, m); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "market already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create market")
		}
		if err := s.publisher.Emit(txCtx, events.Event{
			Type:      events.EventMarketCreated,
			Timestamp: now,
			Market:    m.Address,
			MarketID:  m.MarketID,
			User:      caller,
			RequestID: requestcontext.RequestID(txCtx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		market = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.MarketsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "market created",
		"market_id", marketID.String(),
		"creator", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return market, nil
}

// Stake locks Cred from the caller's vault on one side of an open market.
// One stake per (market, user) pair; amendments are not supported.
func (s *Service) Stake(ctx context.Context, marketID id.MarketID, amount id.Cred, direction bool) (*models.CredStake, error) {
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	var stake *models.CredStake
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		st, err := models.NewCredStake(marketID, caller, amount, direction, now)
		if err != nil {
			return err
		}

		// Full validation pass before any write.
		market, err := s.markets.FindMarket(txCtx, st.Market)
		if err != nil {
			return wrapMarketErr(err)
		}
		if err := market.CanStake(amount, direction); err != nil {
			return err
		}
		if _, err := s.markets.FindStake(txCtx, st.Address); err == nil {
			return dErrors.New(dErrors.CodeConflict, "stake already exists for this market and user")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing stake")
		}
		vault, err := s.vaults.FindByOwner(txCtx, caller)
		if err != nil {
			return wrapVaultErr(err)
		}
		if err := vault.CanStakeDebit(amount); err != nil {
			return err
		}

		if err := s.markets.CreateStake(txCtx, st); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create stake")
		}
		if _, err := s.markets.ExecuteMarket(txCtx, st.Market,
			func(m *models.Market) error { return m.CanStake(amount, direction) },
			func(m *models.Market) { m.ApplyStake(amount, direction) },
		); err != nil {
			return wrapMarketErr(err)
		}
		if _, err := s.vaults.Execute(txCtx, caller,
			func(v *vaultmodels.ReputationVault) error { return v.CanStakeDebit(amount) },
			func(v *vaultmodels.ReputationVault) { v.ApplyStakeDebit(amount, now) },
		); err != nil {
			return wrapVaultErr(err)
		}

		d := direction
		if err := s.publisher.Emit(txCtx, events.Event{
			Type:      events.EventCredStaked,
			Timestamp: now,
			Market:    st.Market,
			MarketID:  marketID,
			User:      caller,
			Amount:    amount,
			Direction: &d,
			RequestID: requestcontext.RequestID(txCtx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		stake = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, stake.Market)
	if s.metrics != nil {
		s.metrics.CredStakedTotal.Add(float64(amount))
	}
	return stake, nil
}

// SubmitEvidence attaches an off-ledger content reference to an open market.
func (s *Service) SubmitEvidence(ctx context.Context, marketID id.MarketID, cid string) (*models.Market, uint8, error) {
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		return nil, 0, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	var market *models.Market
	var index uint8
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		address := keys.Market(marketID)
		m, err := s.markets.ExecuteMarket(txCtx, address,
			func(m *models.Market) error { return m.CanSubmitEvidence(cid) },
			func(m *models.Market) { index = m.ApplyEvidence(cid) },
		)
		if err != nil {
			return wrapMarketErr(err)
		}
		if err := s.publisher.Emit(txCtx, events.Event{
			Type:          events.EventEvidenceSubmitted,
			Timestamp:     now,
			Market:        address,
			MarketID:      marketID,
			User:          caller,
			CID:           cid,
			EvidenceIndex: index,
			RequestID:     requestcontext.RequestID(txCtx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		market = m
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.evict(ctx, market.Address)
	if s.metrics != nil {
		s.metrics.EvidenceSubmitted.Inc()
	}
	return market, index, nil
}

// Resolve pins the outcome of an open market. Executor authority only. A
// successful resolution also requests a proof record mint for the market.
func (s *Service) Resolve(ctx context.Context, marketID id.MarketID, outcome uint8, transcriptHash string) (*models.Market, error) {
	ctx, span := tracer.Start(ctx, "market.Resolve", trace.WithAttributes(
		attribute.String("market.id", marketID.String()),
		attribute.Int("market.outcome", int(outcome)),
	))
	defer span.End()

	if transcriptHash == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "transcript hash is required")
	}

	var market *models.Market
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requireAuthority(txCtx); err != nil {
			return err
		}
		now := requestcontext.Now(txCtx)
		address := keys.Market(marketID)

		// Full validation pass before any write.
		m, err := s.markets.FindMarket(txCtx, address)
		if err != nil {
			return wrapMarketErr(err)
		}
		if err := m.CanResolve(outcome); err != nil {
			return err
		}
		executor, err := s.authority.FindExecutor(txCtx)
		if err != nil {
			return wrapAuthorityErr(err)
		}
		if err := executor.CanCountResolution(); err != nil {
			return err
		}

		m, err = s.markets.ExecuteMarket(txCtx, address,
			func(m *models.Market) error { return m.CanResolve(outcome) },
			func(m *models.Market) { m.ApplyResolve(outcome, transcriptHash, now) },
		)
		if err != nil {
			return wrapMarketErr(err)
		}
		if _, err := s.authority.ExecuteExecutor(txCtx,
			func(e *authmodels.AgentExecutor) error { return e.CanCountResolution() },
			func(e *authmodels.AgentExecutor) { e.ApplyCountResolution(now) },
		); err != nil {
			return wrapAuthorityErr(err)
		}

		o := outcome
		requestID := requestcontext.RequestID(txCtx)
		if err := s.publisher.Emit(txCtx, events.Event{
			Type:           events.EventMarketResolved,
			Timestamp:      now,
			Market:         address,
			MarketID:       marketID,
			User:           requestcontext.CallerID(txCtx),
			Outcome:        &o,
			TranscriptHash: transcriptHash,
			RequestID:      requestID,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		if err := s.publisher.Emit(txCtx, events.Event{
			Type:           events.EventProofRecordMintRequested,
			Timestamp:      now,
			Market:         address,
			MarketID:       marketID,
			Outcome:        &o,
			TranscriptHash: transcriptHash,
			RequestID:      requestID,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		market = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, market.Address)
	if s.metrics != nil {
		s.metrics.MarketsResolved.Inc()
	}
	s.logger.InfoContext(ctx, "market resolved",
		"market_id", marketID.String(),
		"outcome", outcome,
		"request_id", requestcontext.RequestID(ctx),
	)
	return market, nil
}

// Distribute pays out Cred to one winning staker of a resolved market.
// Executor authority only; the amount is caller-supplied so payout policy
// stays outside the ledger. The stake record is never mutated, so repeated
// calls pay further installments to the same winning stake.
func (s *Service) Distribute(ctx context.Context, marketID id.MarketID, user id.Identity, amount id.Cred) (*models.CredStake, error) {
	ctx, span := tracer.Start(ctx, "market.Distribute", trace.WithAttributes(
		attribute.String("market.id", marketID.String()),
		attribute.String("market.user", user.String()),
	))
	defer span.End()

	if amount.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "distribution amount must be positive")
	}

	var stake *models.CredStake
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requireAuthority(txCtx); err != nil {
			return err
		}
		now := requestcontext.Now(txCtx)
		address := keys.Market(marketID)

		// Full validation pass before any write.
		market, err := s.markets.FindMarket(txCtx, address)
		if err != nil {
			return wrapMarketErr(err)
		}
		if market.Status != models.StatusResolved || market.Outcome == nil {
			return dErrors.New(dErrors.CodeMarketNotResolved, "market is not resolved")
		}
		outcome := *market.Outcome
		st, err := s.markets.FindStake(txCtx, keys.CredStake(address, user))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "no stake found for this market and user")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load stake")
		}
		if err := st.CanReceivePayout(outcome); err != nil {
			return err
		}
		vault, err := s.vaults.FindByOwner(txCtx, user)
		if err != nil {
			return wrapVaultErr(err)
		}
		if err := vault.CanEarn(amount); err != nil {
			return err
		}
		pool, err := s.authority.FindPool(txCtx)
		if err != nil {
			return wrapAuthorityErr(err)
		}
		if err := pool.CanRecordDistribution(amount); err != nil {
			return err
		}

		if _, err := s.vaults.Execute(txCtx, user,
			func(v *vaultmodels.ReputationVault) error { return v.CanEarn(amount) },
			func(v *vaultmodels.ReputationVault) { v.ApplyEarn(amount, now) },
		); err != nil {
			return wrapVaultErr(err)
		}
		if _, err := s.authority.ExecutePool(txCtx,
			func(p *authmodels.InsightPool) error { return p.CanRecordDistribution(amount) },
			func(p *authmodels.InsightPool) { p.ApplyRecordDistribution(amount, now) },
		); err != nil {
			return wrapAuthorityErr(err)
		}

		if err := s.publisher.Emit(txCtx, events.Event{
			Type:      events.EventCredDistributed,
			Timestamp: now,
			Market:    address,
			MarketID:  marketID,
			User:      user,
			Amount:    amount,
			RequestID: requestcontext.RequestID(txCtx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		stake = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CredPaidOutTotal.Add(float64(amount))
	}
	s.logger.InfoContext(ctx, "cred distributed",
		"market_id", marketID.String(),
		"user", user.String(),
		"amount", amount.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return stake, nil
}

// Dispute flags a resolved market. The outcome stays recorded; the flag is a
// signal to off-ledger review, not a reversal.
func (s *Service) Dispute(ctx context.Context, marketID id.MarketID) (*models.Market, error) {
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	var market *models.Market
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		address := keys.Market(marketID)
		m, err := s.markets.ExecuteMarket(txCtx, address,
			func(m *models.Market) error { return m.CanDispute() },
			func(m *models.Market) { m.ApplyDispute() },
		)
		if err != nil {
			return wrapMarketErr(err)
		}
		if err := s.publisher.Emit(txCtx, events.Event{
			Type:      events.EventMarketDisputed,
			Timestamp: now,
			Market:    address,
			MarketID:  marketID,
			User:      caller,
			RequestID: requestcontext.RequestID(txCtx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		market = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, market.Address)
	if s.metrics != nil {
		s.metrics.MarketsDisputed.Inc()
	}
	return market, nil
}

// Get loads a market for read surfaces, serving cached snapshots when a
// cache is configured.
func (s *Service) Get(ctx context.Context, marketID id.MarketID) (*models.Market, error) {
	address := keys.Market(marketID)
	if s.cache != nil {
		if market, err := s.cache.Get(ctx, address); err == nil {
			return market, nil
		}
	}
	market, err := s.markets.FindMarket(ctx, address)
	if err != nil {
		return nil, wrapMarketErr(err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, market); err != nil {
			s.logger.WarnContext(ctx, "market cache set failed", "error", err)
		}
	}
	return market, nil
}

// List returns all markets ordered by creation time.
func (s *Service) List(ctx context.Context) ([]*models.Market, error) {
	markets, err := s.markets.ListMarkets(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list markets")
	}
	return markets, nil
}

// GetStake loads the caller-addressed stake on a market.
func (s *Service) GetStake(ctx context.Context, marketID id.MarketID, user id.Identity) (*models.CredStake, error) {
	stake, err := s.markets.FindStake(ctx, keys.CredStake(keys.Market(marketID), user))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no stake found for this market and user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load stake")
	}
	return stake, nil
}

// ListStakes returns all stakes on a market ordered by creation time.
func (s *Service) ListStakes(ctx context.Context, marketID id.MarketID) ([]*models.CredStake, error) {
	stakes, err := s.markets.ListStakesByMarket(ctx, keys.Market(marketID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list stakes")
	}
	return stakes, nil
}

// requireAuthority fails with CodeNotExecutor unless the caller is the
// executor authority.
func (s *Service) requireAuthority(ctx context.Context) error {
	executor, err := s.authority.FindExecutor(ctx)
	if err != nil {
		return wrapAuthorityErr(err)
	}
	if requestcontext.CallerID(ctx) != executor.Authority {
		return dErrors.New(dErrors.CodeNotExecutor, "only the executor authority can perform this operation")
	}
	return nil
}

func (s *Service) evict(ctx context.Context, address keys.Address) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, address); err != nil {
		s.logger.WarnContext(ctx, "market cache invalidate failed", "error", err)
	}
}

func wrapMarketErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "market not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "market already exists")
	default:
		return err
	}
}

func wrapVaultErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "vault not found")
	default:
		return err
	}
}

func wrapAuthorityErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "system records not initialized")
	default:
		return err
	}
}
