// Package store persists the minter configuration and proof records.
package store

import (
	"context"
	"sort"
	"sync"

	"prophecy/internal/mint/models"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
)

// InMemory keeps the minter state in process.
type InMemory struct {
	mu      sync.RWMutex
	config  *models.MinterConfig
	records map[keys.Address]*models.ProofRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[keys.Address]*models.ProofRecord)}
}

// CreateConfig stores the singleton config; sentinel.ErrConflict when it
// already exists.
func (s *InMemory) CreateConfig(_ context.Context, config *models.MinterConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config != nil {
		return sentinel.ErrConflict
	}
	cp := *config
	s.config = &cp
	return nil
}

// FindConfig loads the singleton config.
func (s *InMemory) FindConfig(_ context.Context) (*models.MinterConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.config
	return &cp, nil
}

// ExecuteConfig atomically validates and mutates the config.
func (s *InMemory) ExecuteConfig(
	_ context.Context,
	validate func(*models.MinterConfig) error,
	mutate func(*models.MinterConfig),
) (*models.MinterConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.config
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	s.config = &cp
	out := cp
	return &out, nil
}

// CreateRecord stores a proof record; sentinel.ErrConflict when the market
// already has one.
func (s *InMemory) CreateRecord(_ context.Context, record *models.ProofRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Address]; ok {
		return sentinel.ErrConflict
	}
	cp := *record
	s.records[record.Address] = &cp
	return nil
}

// FindRecordByMarket loads the proof record for a market.
func (s *InMemory) FindRecordByMarket(_ context.Context, market keys.Address) (*models.ProofRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[keys.ProofRecord(market)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

// ListRecords returns all proof records ordered by mint time.
func (s *InMemory) ListRecords(_ context.Context) ([]*models.ProofRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ProofRecord, 0, len(s.records))
	for _, record := range s.records {
		cp := *record
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MintedAt.Equal(out[j].MintedAt) {
			return out[i].MarketID < out[j].MarketID
		}
		return out[i].MintedAt.Before(out[j].MintedAt)
	})
	return out, nil
}
