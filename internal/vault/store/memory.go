// Package store persists reputation vaults keyed by their derived address.
// Both implementations enforce the create-fails-if-exists uniqueness contract
// and expose an Execute callback for atomic validate-then-mutate.
package store

import (
	"context"
	"sync"

	"prophecy/internal/vault/models"
	id "prophecy/pkg/domain"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
)

// InMemory keeps vaults in process. Pair it with tx.MutexRunner so protocol
// operations stay serialized.
type InMemory struct {
	mu     sync.RWMutex
	vaults map[keys.Address]*models.ReputationVault
}

func NewInMemory() *InMemory {
	return &InMemory{vaults: make(map[keys.Address]*models.ReputationVault)}
}

// Create stores a new vault; fails with sentinel.ErrConflict when a vault
// already exists at the derived address.
func (s *InMemory) Create(_ context.Context, vault *models.ReputationVault) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vaults[vault.Address]; ok {
		return sentinel.ErrConflict
	}
	cp := *vault
	s.vaults[vault.Address] = &cp
	return nil
}

// FindByOwner loads the vault for an owner identity.
func (s *InMemory) FindByOwner(_ context.Context, owner id.Identity) (*models.ReputationVault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vault, ok := s.vaults[keys.ReputationVault(owner)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *vault
	return &cp, nil
}

// Execute atomically validates and mutates the owner's vault. The mutation
// runs on a copy; the stored record is only replaced after validate passes,
// so a failed operation leaves no partial state.
func (s *InMemory) Execute(
	_ context.Context,
	owner id.Identity,
	validate func(*models.ReputationVault) error,
	mutate func(*models.ReputationVault),
) (*models.ReputationVault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vault, ok := s.vaults[keys.ReputationVault(owner)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *vault
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	s.vaults[vault.Address] = &cp
	out := cp
	return &out, nil
}
