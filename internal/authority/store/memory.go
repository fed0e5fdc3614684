// Package store persists the two singleton authority records. Their derived
// addresses are constant, so "create exactly once" falls out of the same
// conflict-on-existing-address contract the other stores use.
package store

import (
	"context"
	"sync"

	"prophecy/internal/authority/models"
	"prophecy/pkg/platform/sentinel"
)

// InMemory keeps the singletons in process.
type InMemory struct {
	mu       sync.RWMutex
	executor *models.AgentExecutor
	pool     *models.InsightPool
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) CreateExecutor(_ context.Context, executor *models.AgentExecutor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.executor != nil {
		return sentinel.ErrConflict
	}
	cp := *executor
	s.executor = &cp
	return nil
}

func (s *InMemory) FindExecutor(_ context.Context) (*models.AgentExecutor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.executor == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.executor
	return &cp, nil
}

func (s *InMemory) ExecuteExecutor(
	_ context.Context,
	validate func(*models.AgentExecutor) error,
	mutate func(*models.AgentExecutor),
) (*models.AgentExecutor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.executor == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.executor
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	s.executor = &cp
	out := cp
	return &out, nil
}

func (s *InMemory) CreatePool(_ context.Context, pool *models.InsightPool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return sentinel.ErrConflict
	}
	cp := *pool
	s.pool = &cp
	return nil
}

func (s *InMemory) FindPool(_ context.Context) (*models.InsightPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.pool
	return &cp, nil
}

func (s *InMemory) ExecutePool(
	_ context.Context,
	validate func(*models.InsightPool) error,
	mutate func(*models.InsightPool),
) (*models.InsightPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.pool
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	s.pool = &cp
	out := cp
	return &out, nil
}
