package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Backoff bounds between connection attempts.
var (
	connectInitialInterval = 200 * time.Millisecond
	connectMaxInterval     = 5 * time.Second
)

// PoolConfig configures the connection pool.
type PoolConfig struct {
	DatabaseURL     string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration

	// ConnectRetries is how many more pings follow a failed first one.
	ConnectRetries int
	// OnConnectRetry is called before each retry with the last error and the wait.
	OnConnectRetry func(err error, wait time.Duration)
}

// NewPool creates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int) (*pgxpool.Pool, error) {
	return NewPoolWithConfig(ctx, PoolConfig{
		DatabaseURL: databaseURL,
		MaxConns:    maxConns,
		MinConns:    minConns,
	})
}

// NewPoolWithConfig creates a pool and verifies it can reach the server,
// retrying with exponential backoff while the server is not up yet.
func NewPoolWithConfig(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		config.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pingWithRetry(ctx, pool.Ping, cfg.ConnectRetries, cfg.OnConnectRetry); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func pingWithRetry(ctx context.Context, ping func(context.Context) error, retries int, notify func(error, time.Duration)) error {
	if retries < 0 {
		retries = 0
	}
	if notify == nil {
		notify = func(error, time.Duration) {}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = connectInitialInterval
	b.MaxInterval = connectMaxInterval
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	return backoff.RetryNotify(func() error {
		if err := ping(ctx); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, policy, notify)
}
