//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"prophecy/internal/market/models"
	"prophecy/internal/market/store"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/keys"
	"prophecy/pkg/platform/sentinel"
	"prophecy/pkg/platform/tx"
	"prophecy/pkg/testutil/containers"
)

type PostgresMarketStoreSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *store.Postgres
}

func TestPostgresMarketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresMarketStoreSuite))
}

func (s *PostgresMarketStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresMarketStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "cred_stakes", "markets"))
}

func (s *PostgresMarketStoreSuite) newMarket(rawID string) *models.Market {
	marketID, err := id.ParseMarketID(rawID)
	s.Require().NoError(err)
	creator, err := id.ParseIdentity("alice")
	s.Require().NoError(err)
	market, err := models.NewMarket(marketID, creator, "claim:btc-100k", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return market
}

func (s *PostgresMarketStoreSuite) newStake(market keys.Address, staker, amount string, direction bool) *models.CredStake {
	who, err := id.ParseIdentity(staker)
	s.Require().NoError(err)
	cred, err := id.ParseCred(amount)
	s.Require().NoError(err)
	stake := &models.CredStake{
		Address:   keys.CredStake(market, who),
		Market:    market,
		Staker:    who,
		Amount:    cred,
		Direction: direction,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	return stake
}

func (s *PostgresMarketStoreSuite) TestMarketRoundTrip() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.store.CreateMarket(ctx, market))

	found, err := s.store.FindMarket(ctx, market.Address)
	s.Require().NoError(err)
	s.Equal(market.Address, found.Address)
	s.Equal(market.MarketID, found.MarketID)
	s.Equal(market.Creator, found.Creator)
	s.Equal(market.ClaimRef, found.ClaimRef)
	s.Equal(models.StatusOpen, found.Status)
	s.Nil(found.Outcome)
	s.Nil(found.ResolvedAt)
	s.WithinDuration(market.CreatedAt, found.CreatedAt, time.Millisecond)
}

func (s *PostgresMarketStoreSuite) TestCreateMarketConflict() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.store.CreateMarket(ctx, market))
	s.Require().ErrorIs(s.store.CreateMarket(ctx, s.newMarket("m-1")), sentinel.ErrConflict)
}

func (s *PostgresMarketStoreSuite) TestFindMissingMarket() {
	_, err := s.store.FindMarket(context.Background(), keys.Market("ghost"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresMarketStoreSuite) TestListMarketsOrderedByCreation() {
	ctx := context.Background()
	for _, rawID := range []string{"m-1", "m-2", "m-3"} {
		s.Require().NoError(s.store.CreateMarket(ctx, s.newMarket(rawID)))
		time.Sleep(2 * time.Millisecond)
	}

	markets, err := s.store.ListMarkets(ctx)
	s.Require().NoError(err)
	s.Require().Len(markets, 3)
	s.Equal("m-1", markets[0].MarketID.String())
	s.Equal("m-2", markets[1].MarketID.String())
	s.Equal("m-3", markets[2].MarketID.String())
}

func (s *PostgresMarketStoreSuite) TestExecuteMarketPersistsMutation() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.store.CreateMarket(ctx, market))
	amount, err := id.ParseCred("40")
	s.Require().NoError(err)

	runner := tx.NewSQLRunner(s.pg.DB)
	err = runner.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.ExecuteMarket(ctx, market.Address,
			func(m *models.Market) error { return m.CanStake(amount, true) },
			func(m *models.Market) { m.ApplyStake(amount, true) },
		)
		return err
	})
	s.Require().NoError(err)

	found, err := s.store.FindMarket(ctx, market.Address)
	s.Require().NoError(err)
	s.Equal(amount, found.TotalStakedYes)
	s.Equal(uint64(1), found.StakeCount)
}

func (s *PostgresMarketStoreSuite) TestExecuteMarketValidationFailureLeavesRowUntouched() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	market.ApplyResolve(models.OutcomeYes, "ab12", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.CreateMarket(ctx, market))
	amount, err := id.ParseCred("40")
	s.Require().NoError(err)

	runner := tx.NewSQLRunner(s.pg.DB)
	err = runner.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.ExecuteMarket(ctx, market.Address,
			func(m *models.Market) error { return m.CanStake(amount, true) },
			func(m *models.Market) { m.ApplyStake(amount, true) },
		)
		return err
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeMarketNotOpen))

	found, err := s.store.FindMarket(ctx, market.Address)
	s.Require().NoError(err)
	s.Equal(uint64(0), found.StakeCount)
	s.Equal(models.StatusResolved, found.Status)
}

func (s *PostgresMarketStoreSuite) TestExecuteMarketResolvePersistsOutcomeAndTimestamp() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.store.CreateMarket(ctx, market))
	resolvedAt := time.Now().UTC().Truncate(time.Microsecond)

	runner := tx.NewSQLRunner(s.pg.DB)
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.ExecuteMarket(ctx, market.Address,
			func(m *models.Market) error { return m.CanResolve(models.OutcomeYes) },
			func(m *models.Market) { m.ApplyResolve(models.OutcomeYes, "ab12", resolvedAt) },
		)
		return err
	})
	s.Require().NoError(err)

	found, err := s.store.FindMarket(ctx, market.Address)
	s.Require().NoError(err)
	s.Equal(models.StatusResolved, found.Status)
	s.Require().NotNil(found.Outcome)
	s.Equal(models.OutcomeYes, *found.Outcome)
	s.Equal("ab12", found.TranscriptHash)
	s.Require().NotNil(found.ResolvedAt)
	s.WithinDuration(resolvedAt, *found.ResolvedAt, time.Millisecond)
}

func (s *PostgresMarketStoreSuite) TestEvidenceArrayRoundTrip() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	market.ApplyEvidence("bafy-one")
	market.ApplyEvidence("bafy-two")
	s.Require().NoError(s.store.CreateMarket(ctx, market))

	found, err := s.store.FindMarket(ctx, market.Address)
	s.Require().NoError(err)
	s.Equal([]string{"bafy-one", "bafy-two"}, found.EvidenceCIDs)
}

func (s *PostgresMarketStoreSuite) TestStakeRoundTrip() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.store.CreateMarket(ctx, market))

	stake := s.newStake(market.Address, "bob", "40", true)
	s.Require().NoError(s.store.CreateStake(ctx, stake))

	found, err := s.store.FindStake(ctx, stake.Address)
	s.Require().NoError(err)
	s.Equal(stake.Address, found.Address)
	s.Equal(market.Address, found.Market)
	s.Equal("bob", found.Staker.String())
	s.Equal("40.000000", found.Amount.String())
	s.True(found.Direction)
}

func (s *PostgresMarketStoreSuite) TestCreateStakeConflictPerMarketAndStaker() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.store.CreateMarket(ctx, market))
	s.Require().NoError(s.store.CreateStake(ctx, s.newStake(market.Address, "bob", "40", true)))
	s.Require().ErrorIs(
		s.store.CreateStake(ctx, s.newStake(market.Address, "bob", "10", false)),
		sentinel.ErrConflict,
	)
}

func (s *PostgresMarketStoreSuite) TestListStakesByMarketOrderedByCreation() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	other := s.newMarket("m-2")
	s.Require().NoError(s.store.CreateMarket(ctx, market))
	s.Require().NoError(s.store.CreateMarket(ctx, other))

	for _, staker := range []string{"alice", "bob", "carol"} {
		s.Require().NoError(s.store.CreateStake(ctx, s.newStake(market.Address, staker, "10", true)))
		time.Sleep(2 * time.Millisecond)
	}
	s.Require().NoError(s.store.CreateStake(ctx, s.newStake(other.Address, "dave", "10", false)))

	stakes, err := s.store.ListStakesByMarket(ctx, market.Address)
	s.Require().NoError(err)
	s.Require().Len(stakes, 3)
	s.Equal("alice", stakes[0].Staker.String())
	s.Equal("bob", stakes[1].Staker.String())
	s.Equal("carol", stakes[2].Staker.String())
}

func (s *PostgresMarketStoreSuite) TestFindStakeInsideTransaction() {
	ctx := context.Background()
	market := s.newMarket("m-1")
	s.Require().NoError(s.store.CreateMarket(ctx, market))
	stake := s.newStake(market.Address, "bob", "40", true)
	s.Require().NoError(s.store.CreateStake(ctx, stake))

	runner := tx.NewSQLRunner(s.pg.DB)
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		found, err := s.store.FindStake(ctx, stake.Address)
		if err != nil {
			return err
		}
		s.Equal("40.000000", found.Amount.String())
		return nil
	})
	s.Require().NoError(err)
}
