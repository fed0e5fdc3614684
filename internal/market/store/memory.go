// Package store persists markets and stakes keyed by their derived
// addresses. Create fails when the address is taken; Execute gives the
// service atomic validate-then-mutate over a single record.
package store

import (
	"context"
	"sort"
	"sync"

	"prophecy/internal/market/models"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
)

// InMemory keeps markets and stakes in process. Pair it with tx.MutexRunner
// so protocol operations stay serialized.
type InMemory struct {
	mu      sync.RWMutex
	markets map[keys.Address]*models.Market
	stakes  map[keys.Address]*models.CredStake
}

func NewInMemory() *InMemory {
	return &InMemory{
		markets: make(map[keys.Address]*models.Market),
		stakes:  make(map[keys.Address]*models.CredStake),
	}
}

// CreateMarket stores a new market; sentinel.ErrConflict when the derived
// address is already occupied.
func (s *InMemory) CreateMarket(_ context.Context, market *models.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[market.Address]; ok {
		return sentinel.ErrConflict
	}
	s.markets[market.Address] = market.Clone()
	return nil
}

// FindMarket loads the market at address.
func (s *InMemory) FindMarket(_ context.Context, address keys.Address) (*models.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	market, ok := s.markets[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return market.Clone(), nil
}

// ListMarkets returns all markets ordered by creation time.
func (s *InMemory) ListMarkets(_ context.Context) ([]*models.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Market, 0, len(s.markets))
	for _, market := range s.markets {
		out = append(out, market.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].MarketID < out[j].MarketID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ExecuteMarket atomically validates and mutates the market at address. The
// mutation runs on a copy; the stored record is replaced only after validate
// passes, so a failed operation leaves no partial state.
func (s *InMemory) ExecuteMarket(
	_ context.Context,
	address keys.Address,
	validate func(*models.Market) error,
	mutate func(*models.Market),
) (*models.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	market, ok := s.markets[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := market.Clone()
	if err := validate(cp); err != nil {
		return nil, err
	}
	mutate(cp)
	s.markets[address] = cp
	return cp.Clone(), nil
}

// CreateStake stores a new stake; sentinel.ErrConflict when the (market,
// user) pair already holds one.
func (s *InMemory) CreateStake(_ context.Context, stake *models.CredStake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stakes[stake.Address]; ok {
		return sentinel.ErrConflict
	}
	cp := *stake
	s.stakes[stake.Address] = &cp
	return nil
}

// FindStake loads the stake at address.
func (s *InMemory) FindStake(_ context.Context, address keys.Address) (*models.CredStake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stake, ok := s.stakes[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *stake
	return &cp, nil
}

// ListStakesByMarket returns all stakes on a market ordered by creation time.
func (s *InMemory) ListStakesByMarket(_ context.Context, market keys.Address) ([]*models.CredStake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CredStake
	for _, stake := range s.stakes {
		if stake.Market == market {
			cp := *stake
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Staker < out[j].Staker
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
