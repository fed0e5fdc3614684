package memory

import (
	"context"
	"sync"

	"prophecy/pkg/platform/events"
	"prophecy/pkg/platform/keys"
)

// InMemoryStore keeps the full event log in process. It backs unit tests and
// single-node deployments without a database.
type InMemoryStore struct {
	mu       sync.RWMutex
	log      []events.Event
	byMarket map[keys.Address][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byMarket: make(map[keys.Address][]int)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
	s.byMarket = make(map[keys.Address][]int)
}

func (s *InMemoryStore) Append(_ context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, event)
	if !event.Market.IsZero() {
		s.byMarket[event.Market] = append(s.byMarket[event.Market], len(s.log)-1)
	}
	return nil
}

// ListByMarket returns the events touching one market, in append order.
func (s *InMemoryStore) ListByMarket(_ context.Context, market keys.Address) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idxs := s.byMarket[market]
	out := make([]events.Event, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, s.log[i])
	}
	return out, nil
}

// ListAll returns the whole log in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Event{}, s.log...), nil
}

// ListRecent returns the most recent N events.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.log) - limit
	if start < 0 {
		start = 0
	}
	return append([]events.Event{}, s.log[start:]...), nil
}
