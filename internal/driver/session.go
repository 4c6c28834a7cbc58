// Package driver provides the one concrete wire-level database driver
// this module ships: a pgx-backed Session standing in for the CQL-like
// driver the core spec treats as an out-of-scope contract (prepare/
// execute async statements, expose routing key and replica hints,
// surface a typed codec registry).
package driver

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Config bundles the connection parameters a Session is built from.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string

	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration

	// ConnectRetryTimeout bounds the overall connection-retry loop in
	// Connect; each attempt uses ConnectTimeout.
	ConnectRetryTimeout time.Duration
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to sensible defaults — the same env-var fallback chain as the
// teacher's connection bootstrap, generalized from a multi-service
// backend down to the one database session this module needs.
func ConfigFromEnv() Config {
	return Config{
		Host:                getEnv("DB_HOST", "127.0.0.1"),
		Port:                getEnv("DB_PORT", "5432"),
		User:                getEnv("DB_USER", "postgres"),
		Password:            getEnv("DB_PASSWORD", ""),
		Database:            getEnv("DB_NAME", "postgres"),
		MaxConns:            50,
		MinConns:            10,
		MaxConnLifetime:     60 * time.Minute,
		MaxConnIdleTime:     5 * time.Minute,
		HealthCheckPeriod:   30 * time.Second,
		ConnectTimeout:      10 * time.Second,
		ConnectRetryTimeout: 90 * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Session wraps a shared pgxpool.Pool: the "driver session is shared
// across all executor consumers... internally thread-safe" resource
// described in §5. Operators hold non-owning handles to it.
type Session struct {
	pool *pgxpool.Pool
}

// Connect builds a Session, retrying pool establishment in a background
// goroutine bounded by cfg.ConnectRetryTimeout — the same buffered-
// channel connect-then-wait shape the teacher's connection bootstrap
// uses, trimmed to the one database connection this module needs (no
// Redis/HTTP/LLM client fan-out).
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	dbURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		cfg.User, url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, cfg.Database,
	)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectRetryTimeout)
	defer cancel()

	type result struct {
		pool *pgxpool.Pool
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		var lastErr error
		for {
			select {
			case <-connectCtx.Done():
				resultCh <- result{nil, lastErr}
				return
			default:
			}

			poolConfig, parseErr := pgxpool.ParseConfig(dbURL)
			if parseErr != nil {
				resultCh <- result{nil, parseErr}
				return
			}
			poolConfig.MaxConns = cfg.MaxConns
			poolConfig.MinConns = cfg.MinConns
			poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
			poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
			poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
			poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

			pool, err := pgxpool.ConnectConfig(connectCtx, poolConfig)
			if err != nil {
				lastErr = err
				time.Sleep(time.Second)
				continue
			}
			resultCh <- result{pool, nil}
			return
		}
	}()

	res := <-resultCh
	if res.err != nil {
		return nil, fmt.Errorf("driver: failed to connect to database: %w", res.err)
	}
	if res.pool == nil {
		return nil, fmt.Errorf("driver: failed to connect to database: pool is nil")
	}
	return &Session{pool: res.pool}, nil
}

// Pool exposes the underlying pgxpool.Pool for the retry and execution
// layers. Operators must not close it directly; use Session.Close.
func (s *Session) Pool() *pgxpool.Pool { return s.pool }

// Close releases the pool. Safe to call more than once.
func (s *Session) Close() {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}
