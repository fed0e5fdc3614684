// Package service orchestrates the reputation vault lifecycle: one-time
// initialization with the initial grant, and privileged Cred earning.
package service

import (
	"context"
	"errors"
	"log/slog"

	vaultmetrics "prophecy/internal/vault/metrics"
	"prophecy/internal/vault/models"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/events"
	"prophecy/pkg/platform/sentinel"
	"prophecy/pkg/platform/tx"
	"prophecy/pkg/requestcontext"
)

// VaultStore persists reputation vaults.
type VaultStore interface {
	Create(ctx context.Context, vault *models.ReputationVault) error
	FindByOwner(ctx context.Context, owner id.Identity) (*models.ReputationVault, error)
	Execute(ctx context.Context, owner id.Identity,
		validate func(*models.ReputationVault) error,
		mutate func(*models.ReputationVault)) (*models.ReputationVault, error)
}

// ExecutorAuthority resolves the AgentExecutor authority identity; earn_cred
// is only callable by that identity.
type ExecutorAuthority interface {
	Authority(ctx context.Context) (id.Identity, error)
}

// EventPublisher appends protocol events to the ledger event log.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service orchestrates vault operations.
type Service struct {
	vaults    VaultStore
	executor  ExecutorAuthority
	publisher EventPublisher
	runner    tx.Runner
	logger    *slog.Logger
	metrics   *vaultmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *vaultmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRunner(r tx.Runner) Option {
	return func(s *Service) { s.runner = r }
}

// New constructs a Service.
func New(vaults VaultStore, executor ExecutorAuthority, publisher EventPublisher, opts ...Option) *Service {
	s := &Service{
		vaults:    vaults,
		executor:  executor,
		publisher: publisher,
		logger:    slog.Default(),
		runner:    tx.NewMutexRunner(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates the vault for an owner with the initial Cred grant.
// Fails with a conflict when the owner already has a vault; the derived
// address is the uniqueness constraint.
func (s *Service) Initialize(ctx context.Context, owner id.Identity) (*models.ReputationVault, error) {
	var vault *models.ReputationVault
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		v, err := models.NewReputationVault(owner, now)
		if err != nil {
			return err
		}
		if err := s.vaults.Create(txCtx, v); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "vault already exists for owner")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create vault")
		}
		if err := s.publisher.Emit(txCtx, events.Event{
			Type:      events.EventCredEarned,
			Timestamp: now,
			User:      owner,
			Amount:    id.InitialCredGrant,
			Method:    string(models.EarnInitialGrant),
			RequestID: requestcontext.RequestID(txCtx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		vault = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementVaultsInitialized()
	}
	s.logger.InfoContext(ctx, "vault initialized",
		"owner", owner.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return vault, nil
}

// Earn credits Cred to a vault. Only the AgentExecutor authority may mint
// Cred; any other caller fails before any state is touched.
func (s *Service) Earn(ctx context.Context, owner id.Identity, amount id.Cred, method models.EarnMethod) (*models.ReputationVault, error) {
	if _, err := models.ParseEarnMethod(string(method)); err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "earn amount must be positive")
	}

	var vault *models.ReputationVault
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		authority, err := s.executor.Authority(txCtx)
		if err != nil {
			return err
		}
		caller := requestcontext.CallerID(txCtx)
		if caller != authority {
			return dErrors.New(dErrors.CodeNotExecutor, "only the executor authority can mint cred")
		}

		now := requestcontext.Now(txCtx)
		v, err := s.vaults.Execute(txCtx, owner,
			func(v *models.ReputationVault) error { return v.CanEarn(amount) },
			func(v *models.ReputationVault) { v.ApplyEarn(amount, now) },
		)
		if err != nil {
			return wrapVaultErr(err)
		}
		if err := s.publisher.Emit(txCtx, events.Event{
			Type:      events.EventCredEarned,
			Timestamp: now,
			User:      owner,
			Amount:    amount,
			Method:    string(method),
			RequestID: requestcontext.RequestID(txCtx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		vault = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AddCredEarned(uint64(amount))
	}
	return vault, nil
}

// Get loads a vault for read surfaces.
func (s *Service) Get(ctx context.Context, owner id.Identity) (*models.ReputationVault, error) {
	vault, err := s.vaults.FindByOwner(ctx, owner)
	if err != nil {
		return nil, wrapVaultErr(err)
	}
	return vault, nil
}

func wrapVaultErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "vault not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "vault already exists")
	default:
		return err
	}
}
