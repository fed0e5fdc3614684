// Command server runs the prophecy ledger: HTTP API, event pipeline and the
// proof record minter. Main only wires dependencies; business logic lives in
// the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	authorityhandler "prophecy/internal/authority/handler"
	authorityservice "prophecy/internal/authority/service"
	authoritystore "prophecy/internal/authority/store"
	jwttoken "prophecy/internal/jwt_token"
	markethandler "prophecy/internal/market/handler"
	marketmetrics "prophecy/internal/market/metrics"
	marketservice "prophecy/internal/market/service"
	marketstore "prophecy/internal/market/store"
	marketcache "prophecy/internal/market/store/cache"
	minthandler "prophecy/internal/mint/handler"
	mintservice "prophecy/internal/mint/service"
	mintstore "prophecy/internal/mint/store"
	"prophecy/internal/platform/config"
	"prophecy/internal/platform/httpserver"
	"prophecy/internal/platform/kafka"
	kafkaconsumer "prophecy/internal/platform/kafka/consumer"
	"prophecy/internal/platform/logger"
	platformmetrics "prophecy/internal/platform/metrics"
	platformredis "prophecy/internal/platform/redis"
	httptransport "prophecy/internal/transport/http"
	vaulthandler "prophecy/internal/vault/handler"
	vaultmetrics "prophecy/internal/vault/metrics"
	vaultservice "prophecy/internal/vault/service"
	vaultstore "prophecy/internal/vault/store"
	"prophecy/pkg/platform/events"
	eventsconsumer "prophecy/pkg/platform/events/consumer"
	eventsmemory "prophecy/pkg/platform/events/store/memory"
	eventspostgres "prophecy/pkg/platform/events/store/postgres"
	"prophecy/pkg/platform/events/publisher"
	eventsworker "prophecy/pkg/platform/events/worker"
	"prophecy/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backing stores: Postgres when configured, in-process otherwise.
	var (
		db           *sql.DB
		runner       tx.Runner
		mintRunner   tx.Runner
		eventStore   events.Store
		outboxSource eventsworker.OutboxSource
		vaultStore   vaultservice.VaultStore
		marketStore  marketservice.MarketStore
		authStore    interface {
			authorityservice.Store
			marketservice.AuthorityStore
		}
		mintStore mintservice.Store
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		if err := db.PingContext(ctx); err != nil {
			return err
		}

		runner = tx.NewSQLRunner(db)
		mintRunner = tx.NewSQLRunner(db)
		pgEvents := eventspostgres.New(db)
		eventStore = pgEvents
		outboxSource = pgEvents
		vaultStore = vaultstore.NewPostgres(db)
		marketStore = marketstore.NewPostgres(db)
		authStore = authoritystore.NewPostgres(db)
		mintStore = mintstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		runner = tx.NewMutexRunner()
		mintRunner = tx.NewMutexRunner()
		eventStore = eventsmemory.NewInMemoryStore()
		vaultStore = vaultstore.NewInMemory()
		marketStore = marketstore.NewInMemory()
		authStore = authoritystore.NewInMemory()
		mintStore = mintstore.NewInMemory()
		log.Info("using in-memory stores")
	}

	httpMetrics := platformmetrics.New()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Event pipeline. The publisher appends synchronously so the append joins
	// the emitting operation's transaction; broker delivery is decoupled
	// through the outbox relay.
	pubOpts := []publisher.Option{publisher.WithLogger(log)}
	kafkaEnabled := len(cfg.Kafka.Brokers) > 0 && db != nil

	var mintSvc *mintservice.Service
	if !kafkaEnabled {
		// No broker: deliver mint requests in-process so resolutions
		// still produce proof records.
		mintSvc = mintservice.New(mintStore, nil,
			mintservice.WithLogger(log), mintservice.WithRunner(mintRunner))
		pubOpts = append(pubOpts, publisher.WithSink(events.CategoryMint, mintservice.NewSink(mintSvc)))
	}
	pub := publisher.NewPublisher(eventStore, pubOpts...)
	defer pub.Close()
	if mintSvc != nil {
		mintSvc.SetPublisher(pub)
	}

	// Domain services.
	authSvc := authorityservice.New(authStore, authorityservice.WithLogger(log))
	vaultSvc := vaultservice.New(vaultStore, authSvc, pub,
		vaultservice.WithLogger(log),
		vaultservice.WithMetrics(vaultmetrics.New()),
		vaultservice.WithRunner(runner),
	)
	marketOpts := []marketservice.Option{
		marketservice.WithLogger(log),
		marketservice.WithMetrics(marketmetrics.New()),
		marketservice.WithRunner(runner),
	}
	if redisClient != nil {
		marketOpts = append(marketOpts, marketservice.WithCache(marketcache.New(redisClient.Client)))
	}
	marketSvc := marketservice.New(marketStore, vaultStore, authStore, pub, marketOpts...)
	if mintSvc == nil {
		mintSvc = mintservice.New(mintStore, pub,
			mintservice.WithLogger(log), mintservice.WithRunner(mintRunner))
	}

	// HTTP surface.
	jwtSvc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	routerOpts := httptransport.Options{
		Logger:       log,
		EventLog:     pub,
		JWTValidator: jwtSvc,
	}
	if redisClient != nil {
		routerOpts.Health = append(routerOpts.Health, redisClient)
	}
	router := httptransport.NewRouter(routerOpts,
		authorityhandler.New(authSvc, mintSvc, log, httpMetrics, cfg.Auth.AdminTokenHash),
		vaulthandler.New(vaultSvc, log, httpMetrics, jwtSvc),
		markethandler.New(marketSvc, log, httpMetrics, jwtSvc),
		minthandler.New(mintSvc, log, httpMetrics, jwtSvc),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting prophecy server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Broker pipeline: outbox relay out, minter consumer back in.
	if kafkaEnabled {
		producer, err := kafka.NewProducer(kafka.Config{
			Brokers:     cfg.Kafka.Brokers,
			LedgerTopic: cfg.Kafka.LedgerTopic,
			MintTopic:   cfg.Kafka.MintTopic,
		})
		if err != nil {
			return err
		}
		defer producer.Close()

		relay := eventsworker.NewRelay(outboxSource, producer, log,
			eventsworker.WithInterval(cfg.Kafka.RelayInterval))
		g.Go(func() error { return relay.Run(gctx) })

		mintRouter := eventsconsumer.NewRouter(log, nil)
		mintRouter.Register(cfg.Kafka.MintTopic, mintservice.NewTopicHandler(mintSvc))
		consumer, err := kafkaconsumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup,
			[]string{cfg.Kafka.MintTopic}, mintRouter, log)
		if err != nil {
			return err
		}
		g.Go(func() error { return consumer.Run(gctx) })
		log.Info("kafka pipeline enabled", "brokers", cfg.Kafka.Brokers)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
