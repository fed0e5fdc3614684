package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"prophecy/internal/authority/handler"
	"prophecy/internal/authority/service"
	"prophecy/internal/authority/store"
	mintservice "prophecy/internal/mint/service"
	mintstore "prophecy/internal/mint/store"
	id "prophecy/pkg/domain"
	"prophecy/pkg/secrets"
	"prophecy/pkg/testutil"
)

const adminToken = "test-admin-token"

type AuthorityHandlerSuite struct {
	suite.Suite

	store  *store.InMemory
	mints  *mintstore.InMemory
	router chi.Router
}

func TestAuthorityHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthorityHandlerSuite))
}

func (s *AuthorityHandlerSuite) SetupTest() {
	hash, err := secrets.Hash(adminToken)
	s.Require().NoError(err)

	s.store = store.NewInMemory()
	s.mints = mintstore.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(s.store, service.WithLogger(logger))
	mintSvc := mintservice.New(s.mints, nil, mintservice.WithLogger(logger))
	h := handler.New(svc, mintSvc, logger, nil, hash)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *AuthorityHandlerSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *AuthorityHandlerSuite) bootstrap(authority string) *http.Request {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/system/bootstrap", handler.BootstrapRequest{
		Authority: authority,
	})
	req.Header.Set("X-Admin-Token", adminToken)
	return req
}

func (s *AuthorityHandlerSuite) TestBootstrap() {
	s.Run("creates the singleton records", func() {
		rr := testutil.DoRequest(s.router, s.bootstrap("agent-executor"))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[handler.BootstrapResponse](s.T(), rr)
		s.Equal("agent-executor", resp.Executor.Authority)
		s.Equal(uint64(0), resp.Executor.MarketsResolved)
		s.Equal("agent-executor", resp.Pool.Authority)
		s.Equal("0.000000", resp.Pool.TotalCredits)
		s.Equal(uint64(0), resp.Pool.DistributionsCount)

		// The minter config is created in the same call, so resolutions
		// can mint proof records without further setup.
		config, err := s.mints.FindConfig(context.Background())
		s.Require().NoError(err)
		s.Equal(id.Identity("agent-executor"), config.Authority)
		s.Equal(uint64(0), config.MintsCount)
	})

	s.Run("second bootstrap conflicts", func() {
		testutil.DoRequest(s.router, s.bootstrap("agent-executor"))
		rr := testutil.DoRequest(s.router, s.bootstrap("agent-executor"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("completes a half-bootstrapped system", func() {
		// Executor exists but the pool does not, as if a first attempt
		// died between the two creates.
		authority, err := id.ParseIdentity("agent-executor")
		s.Require().NoError(err)
		executor, err := service.New(s.store).InitializeExecutor(context.Background(), authority)
		s.Require().NoError(err)

		rr := testutil.DoRequest(s.router, s.bootstrap("agent-executor"))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[handler.BootstrapResponse](s.T(), rr)
		s.Equal(executor.Address.String(), resp.Executor.Address)
		s.Equal("agent-executor", resp.Pool.Authority)

		_, err = s.mints.FindConfig(context.Background())
		s.Require().NoError(err)
	})

	s.Run("completes a system missing only the minter config", func() {
		testutil.DoRequest(s.router, s.bootstrap("agent-executor"))

		// Same authority records, fresh mint store: the retry creates the
		// missing config instead of reporting a conflict.
		hash, err := secrets.Hash(adminToken)
		s.Require().NoError(err)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		mints := mintstore.NewInMemory()
		h := handler.New(service.New(s.store), mintservice.New(mints, nil), logger, nil, hash)
		router := chi.NewRouter()
		h.Register(router)

		rr := testutil.DoRequest(router, s.bootstrap("agent-executor"))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		_, err = mints.FindConfig(context.Background())
		s.Require().NoError(err)
	})

	s.Run("rejects missing admin token", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/system/bootstrap", handler.BootstrapRequest{
			Authority: "agent-executor",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("rejects wrong admin token", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/system/bootstrap", handler.BootstrapRequest{
			Authority: "agent-executor",
		})
		req.Header.Set("X-Admin-Token", "wrong")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("rejects empty authority", func() {
		rr := testutil.DoRequest(s.router, s.bootstrap(""))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("bootstrap disabled without a configured hash", func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		h := handler.New(service.New(store.NewInMemory()), mintservice.New(mintstore.NewInMemory(), nil), logger, nil, "")
		router := chi.NewRouter()
		h.Register(router)

		rr := testutil.DoRequest(router, s.bootstrap("agent-executor"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *AuthorityHandlerSuite) TestReads() {
	s.Run("reads 404 before bootstrap", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/system/executor"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

		rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/system/pool"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("reads records after bootstrap", func() {
		testutil.DoRequest(s.router, s.bootstrap("agent-executor"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/system/executor"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		executor := testutil.UnmarshalResponse[handler.ExecutorResponse](s.T(), rr)
		s.Equal("agent-executor", executor.Authority)

		rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/system/pool"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		pool := testutil.UnmarshalResponse[handler.PoolResponse](s.T(), rr)
		s.Equal("agent-executor", pool.Authority)
	})
}
