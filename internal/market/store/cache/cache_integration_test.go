//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"prophecy/internal/market/models"
	"prophecy/internal/market/store/cache"
	id "prophecy/pkg/domain"
	"prophecy/pkg/platform/sentinel"
	"prophecy/pkg/testutil/containers"
)

type SnapshotCacheSuite struct {
	suite.Suite

	redis *containers.RedisContainer
	cache *cache.Snapshots
}

func TestSnapshotCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SnapshotCacheSuite))
}

func (s *SnapshotCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = cache.New(s.redis.Client)
}

func (s *SnapshotCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *SnapshotCacheSuite) newMarket(rawID string) *models.Market {
	marketID, err := id.ParseMarketID(rawID)
	s.Require().NoError(err)
	creator, err := id.ParseIdentity("alice")
	s.Require().NoError(err)
	market, err := models.NewMarket(marketID, creator, "claim:btc-100k", time.Now().UTC().Truncate(time.Millisecond))
	s.Require().NoError(err)
	return market
}

func (s *SnapshotCacheSuite) TestSetAndGet() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.cache.Set(ctx, market))

	found, err := s.cache.Get(ctx, market.Address)
	s.Require().NoError(err)
	s.Equal(market.Address, found.Address)
	s.Equal(market.MarketID, found.MarketID)
	s.Equal(market.Status, found.Status)
	s.Equal(market.TotalStakedYes, found.TotalStakedYes)
}

func (s *SnapshotCacheSuite) TestMissReturnsNotFound() {
	market := s.newMarket("m-ghost")
	_, err := s.cache.Get(context.Background(), market.Address)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SnapshotCacheSuite) TestInvalidateDropsSnapshot() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.cache.Set(ctx, market))
	s.Require().NoError(s.cache.Invalidate(ctx, market.Address))

	_, err := s.cache.Get(ctx, market.Address)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SnapshotCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	short := cache.New(s.redis.Client, cache.WithTTL(100*time.Millisecond))
	market := s.newMarket("m-1")
	s.Require().NoError(short.Set(ctx, market))

	_, err := short.Get(ctx, market.Address)
	s.Require().NoError(err)

	time.Sleep(200 * time.Millisecond)
	_, err = short.Get(ctx, market.Address)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SnapshotCacheSuite) TestCorruptEntryIsDroppedNotServed() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.cache.Set(ctx, market))

	key := "market:snapshot:" + market.Address.String()
	s.Require().NoError(s.redis.Client.Set(ctx, key, "{corrupt", time.Minute).Err())

	_, err := s.cache.Get(ctx, market.Address)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// The corrupt value is evicted, not left behind.
	exists, err := s.redis.Client.Exists(ctx, key).Result()
	s.Require().NoError(err)
	s.Equal(int64(0), exists)
}
