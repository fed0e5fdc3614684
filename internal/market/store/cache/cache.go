// Package cache keeps short-lived market snapshots in Redis so read-heavy
// surfaces (market pages, polling clients) skip the database. It is strictly
// a read accelerator: writes always go to the backing store and evict here.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"prophecy/internal/market/models"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prophecy_market_cache_hits_total",
		Help: "Market snapshot reads served from Redis",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prophecy_market_cache_misses_total",
		Help: "Market snapshot reads that fell through to the store",
	})
)

const marketKeyPrefix = "market:snapshot:"

// DefaultTTL bounds staleness for cached snapshots. Open markets change on
// every stake, so the window stays short.
const DefaultTTL = 30 * time.Second

// Snapshots caches market records by derived address.
type Snapshots struct {
	client *redis.Client
	ttl    time.Duration
}

type Option func(*Snapshots)

func WithTTL(ttl time.Duration) Option {
	return func(s *Snapshots) { s.ttl = ttl }
}

func New(client *redis.Client, opts ...Option) *Snapshots {
	s := &Snapshots{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get loads a cached snapshot; sentinel.ErrNotFound on miss.
func (s *Snapshots) Get(ctx context.Context, address keys.Address) (*models.Market, error) {
	raw, err := s.client.Get(ctx, marketKeyPrefix+address.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheMisses.Inc()
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var market models.Market
	if err := json.Unmarshal(raw, &market); err != nil {
		// Corrupt entries are dropped rather than served.
		_ = s.client.Del(ctx, marketKeyPrefix+address.String()).Err()
		cacheMisses.Inc()
		return nil, sentinel.ErrNotFound
	}
	cacheHits.Inc()
	return &market, nil
}

// Set stores a snapshot with the configured TTL.
func (s *Snapshots) Set(ctx context.Context, market *models.Market) error {
	raw, err := json.Marshal(market)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, marketKeyPrefix+market.Address.String(), raw, s.ttl).Err()
}

// Invalidate drops the snapshot after a write to the backing store.
func (s *Snapshots) Invalidate(ctx context.Context, address keys.Address) error {
	return s.client.Del(ctx, marketKeyPrefix+address.String()).Err()
}
