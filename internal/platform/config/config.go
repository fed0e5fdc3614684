// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a development default; production overrides
// via environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Kafka    Kafka
	Auth     Auth
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Database configures the Postgres backing store. An empty URL selects the
// in-memory stores.
type Database struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// Redis configures the market snapshot cache. An empty URL disables it.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the event stream. Empty brokers disable streaming; events
// then flow to in-process sinks only.
type Kafka struct {
	Brokers       []string
	LedgerTopic   string
	MintTopic     string
	ConsumerGroup string
	RelayInterval time.Duration
}

// Auth configures caller authentication and the bootstrap admin token hash.
type Auth struct {
	JWTSigningKey  string
	JWTIssuer      string
	AdminTokenHash string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envOr("PROPHECY_ADDR", ":8080"),
			ShutdownTimeout: envDuration("PROPHECY_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			URL:          os.Getenv("PROPHECY_DATABASE_URL"),
			MaxOpenConns: envInt("PROPHECY_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("PROPHECY_DB_MAX_IDLE_CONNS", 5),
		},
		Redis: Redis{
			URL:          os.Getenv("PROPHECY_REDIS_URL"),
			PoolSize:     envInt("PROPHECY_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("PROPHECY_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("PROPHECY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PROPHECY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PROPHECY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:       splitNonEmpty(os.Getenv("PROPHECY_KAFKA_BROKERS")),
			LedgerTopic:   envOr("PROPHECY_KAFKA_LEDGER_TOPIC", "prophecy.ledger.events"),
			MintTopic:     envOr("PROPHECY_KAFKA_MINT_TOPIC", "prophecy.mint.requests"),
			ConsumerGroup: envOr("PROPHECY_KAFKA_CONSUMER_GROUP", "prophecy-minter"),
			RelayInterval: envDuration("PROPHECY_KAFKA_RELAY_INTERVAL", 500*time.Millisecond),
		},
		Auth: Auth{
			// Development default; override in production.
			JWTSigningKey:  envOr("PROPHECY_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:      envOr("PROPHECY_JWT_ISSUER", "prophecy"),
			AdminTokenHash: os.Getenv("PROPHECY_ADMIN_TOKEN_HASH"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
