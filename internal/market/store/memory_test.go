package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"prophecy/internal/market/models"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
)

type MarketStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestMarketStoreSuite(t *testing.T) {
	suite.Run(t, new(MarketStoreSuite))
}

func (s *MarketStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MarketStoreSuite) newMarket(marketID id.MarketID, createdAt time.Time) *models.Market {
	m, err := models.NewMarket(marketID, "creator-1", "claim for "+marketID.String(), createdAt)
	s.Require().NoError(err)
	return m
}

func (s *MarketStoreSuite) TestMarketCreationAndLookup() {
	s.Run("creates and finds a market", func() {
		m := s.newMarket("mkt-1", time.Now())
		s.Require().NoError(s.store.CreateMarket(s.ctx, m))

		found, err := s.store.FindMarket(s.ctx, m.Address)
		s.Require().NoError(err)
		s.Equal(m.MarketID, found.MarketID)
		s.Equal(models.StatusOpen, found.Status)
	})

	s.Run("returns ErrNotFound for unknown address", func() {
		_, err := s.store.FindMarket(s.ctx, keys.Market("missing"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate address", func() {
		m := s.newMarket("mkt-dup", time.Now())
		s.Require().NoError(s.store.CreateMarket(s.ctx, m))
		s.Require().ErrorIs(s.store.CreateMarket(s.ctx, m), sentinel.ErrConflict)
	})

	s.Run("handed-out records are isolated from the store", func() {
		m := s.newMarket("mkt-iso", time.Now())
		s.Require().NoError(s.store.CreateMarket(s.ctx, m))

		found, err := s.store.FindMarket(s.ctx, m.Address)
		s.Require().NoError(err)
		found.Status = models.StatusDisputed

		again, err := s.store.FindMarket(s.ctx, m.Address)
		s.Require().NoError(err)
		s.Equal(models.StatusOpen, again.Status)
	})
}

func (s *MarketStoreSuite) TestListMarkets() {
	base := time.Now()
	for i := 0; i < 3; i++ {
		m := s.newMarket(id.MarketID(fmt.Sprintf("mkt-%d", 2-i)), base.Add(time.Duration(2-i)*time.Second))
		s.Require().NoError(s.store.CreateMarket(s.ctx, m))
	}

	markets, err := s.store.ListMarkets(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(markets, 3)
	s.Equal(id.MarketID("mkt-0"), markets[0].MarketID)
	s.Equal(id.MarketID("mkt-2"), markets[2].MarketID)
}

func (s *MarketStoreSuite) TestExecuteMarket() {
	s.Run("validate failure leaves the record untouched", func() {
		m := s.newMarket("mkt-exec-1", time.Now())
		s.Require().NoError(s.store.CreateMarket(s.ctx, m))

		boom := dErrors.New(dErrors.CodeMarketNotOpen, "nope")
		_, err := s.store.ExecuteMarket(s.ctx, m.Address,
			func(*models.Market) error { return boom },
			func(m *models.Market) { m.ApplyStake(1, true) },
		)
		s.Require().ErrorIs(err, boom)

		found, err := s.store.FindMarket(s.ctx, m.Address)
		s.Require().NoError(err)
		s.Equal(uint64(0), found.StakeCount)
	})

	s.Run("mutation is applied and persisted", func() {
		m := s.newMarket("mkt-exec-2", time.Now())
		s.Require().NoError(s.store.CreateMarket(s.ctx, m))

		updated, err := s.store.ExecuteMarket(s.ctx, m.Address,
			func(m *models.Market) error { return m.CanStake(5, true) },
			func(m *models.Market) { m.ApplyStake(5, true) },
		)
		s.Require().NoError(err)
		s.Equal(uint64(1), updated.StakeCount)

		found, err := s.store.FindMarket(s.ctx, m.Address)
		s.Require().NoError(err)
		s.Equal(id.Cred(5), found.TotalStakedYes)
	})

	s.Run("unknown address fails with ErrNotFound", func() {
		_, err := s.store.ExecuteMarket(s.ctx, keys.Market("missing"),
			func(*models.Market) error { return nil },
			func(*models.Market) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MarketStoreSuite) TestStakes() {
	market := s.newMarket("mkt-stakes", time.Now())
	s.Require().NoError(s.store.CreateMarket(s.ctx, market))

	newStake := func(staker id.Identity, createdAt time.Time) *models.CredStake {
		st, err := models.NewCredStake(market.MarketID, staker, 1_000_000, true, createdAt)
		s.Require().NoError(err)
		return st
	}

	s.Run("creates and finds a stake", func() {
		st := newStake("alice", time.Now())
		s.Require().NoError(s.store.CreateStake(s.ctx, st))

		found, err := s.store.FindStake(s.ctx, st.Address)
		s.Require().NoError(err)
		s.Equal(st.Staker, found.Staker)
		s.Equal(st.Amount, found.Amount)
	})

	s.Run("rejects duplicate stake address", func() {
		st := newStake("alice", time.Now())
		s.Require().ErrorIs(s.store.CreateStake(s.ctx, st), sentinel.ErrConflict)
	})

	s.Run("lists stakes by market in creation order", func() {
		base := time.Now()
		s.Require().NoError(s.store.CreateStake(s.ctx, newStake("carol", base.Add(2*time.Second))))
		s.Require().NoError(s.store.CreateStake(s.ctx, newStake("bob", base.Add(time.Second))))

		stakes, err := s.store.ListStakesByMarket(s.ctx, market.Address)
		s.Require().NoError(err)
		s.Require().Len(stakes, 3)
		s.Equal(id.Identity("bob"), stakes[1].Staker)
		s.Equal(id.Identity("carol"), stakes[2].Staker)
	})

	s.Run("find returns a copy the caller cannot mutate through", func() {
		address := keys.CredStake(market.Address, "alice")
		found, err := s.store.FindStake(s.ctx, address)
		s.Require().NoError(err)
		found.Amount = 99

		again, err := s.store.FindStake(s.ctx, address)
		s.Require().NoError(err)
		s.Equal(id.Cred(1_000_000), again.Amount)
	})
}
