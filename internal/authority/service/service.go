// Package service bootstraps and reads the singleton authority records: the
// AgentExecutor trust anchor and the InsightPool bookkeeping record.
package service

import (
	"context"
	"errors"
	"log/slog"

	"prophecy/internal/authority/models"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/sentinel"
	"prophecy/pkg/requestcontext"
)

// Store persists the singleton authority records.
type Store interface {
	CreateExecutor(ctx context.Context, executor *models.AgentExecutor) error
	FindExecutor(ctx context.Context) (*models.AgentExecutor, error)
	CreatePool(ctx context.Context, pool *models.InsightPool) error
	FindPool(ctx context.Context) (*models.InsightPool, error)
}

// Service owns system bootstrap. Both records are created exactly once; the
// constant derived addresses turn re-bootstrap attempts into conflicts.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitializeExecutor creates the AgentExecutor singleton.
func (s *Service) InitializeExecutor(ctx context.Context, authority id.Identity) (*models.AgentExecutor, error) {
	executor, err := models.NewAgentExecutor(authority, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateExecutor(ctx, executor); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "agent executor already initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create agent executor")
	}
	s.logger.InfoContext(ctx, "agent executor initialized", "authority", authority.String())
	return executor, nil
}

// InitializePool creates the InsightPool singleton.
func (s *Service) InitializePool(ctx context.Context, authority id.Identity) (*models.InsightPool, error) {
	pool, err := models.NewInsightPool(authority, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePool(ctx, pool); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "insight pool already initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create insight pool")
	}
	s.logger.InfoContext(ctx, "insight pool initialized", "authority", authority.String())
	return pool, nil
}

// Authority resolves the executor authority identity for privileged checks.
func (s *Service) Authority(ctx context.Context) (id.Identity, error) {
	executor, err := s.store.FindExecutor(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "agent executor not initialized")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agent executor")
	}
	return executor.Authority, nil
}

// GetExecutor loads the executor record for read surfaces.
func (s *Service) GetExecutor(ctx context.Context) (*models.AgentExecutor, error) {
	executor, err := s.store.FindExecutor(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "agent executor not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agent executor")
	}
	return executor, nil
}

// GetPool loads the pool record for read surfaces.
func (s *Service) GetPool(ctx context.Context) (*models.InsightPool, error) {
	pool, err := s.store.FindPool(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "insight pool not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load insight pool")
	}
	return pool, nil
}
