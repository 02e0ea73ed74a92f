package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/gotransfer/internal/adapter/http"
	"github.com/iho/gotransfer/internal/adapter/http/handler"
	"github.com/iho/gotransfer/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gotransfer/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gotransfer/internal/adapter/repository/redis"
	"github.com/iho/gotransfer/internal/infrastructure/config"
	"github.com/iho/gotransfer/internal/infrastructure/idgen"
	"github.com/iho/gotransfer/internal/infrastructure/logger"
	"github.com/iho/gotransfer/internal/infrastructure/metrics"
	"github.com/iho/gotransfer/internal/infrastructure/notification"
	"github.com/iho/gotransfer/internal/infrastructure/postgres"
	"github.com/iho/gotransfer/internal/infrastructure/redis"
	"github.com/iho/gotransfer/internal/usecase"
)

// accountStore is an AccountStore that can report its own health.
type accountStore interface {
	usecase.AccountStore
	Ping(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, prometheus.DefaultRegisterer); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// run wires the service and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) error {
	m := metrics.New(reg)

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	checks := []handler.HealthCheck{{Name: "store", Check: store.Ping}}

	// Redis is optional; without it Idempotency-Key headers are ignored.
	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient, redisRepo.WithRecorder(m))
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: redis.Pinger(redisClient)})
	}

	sender, closeSender, err := openSender(cfg, log)
	if err != nil {
		return err
	}
	defer closeSender()

	ids := idgen.NewULIDGenerator()

	dispatcher := notification.NewDispatcher(notification.Config{
		Sender:    sender,
		Logger:    log,
		Recorder:  m,
		IDGen:     ids,
		QueueSize: cfg.NotifyQueueSize,
		Workers:   cfg.NotifyWorkers,
	})
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(store)
	transferUC := usecase.NewTransferUseCase(usecase.TransferConfig{
		Store:       store,
		Notifier:    dispatcher,
		IDGen:       ids,
		Observer:    m,
		LockTimeout: cfg.TransferLockTimeout,
	})
	reconciliationUC := usecase.NewReconciliationUseCase(store)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC, log),
		TransferHandler:  handler.NewTransferHandler(transferUC, log),
		LedgerHandler:    handler.NewLedgerHandler(reconciliationUC, log),
		HealthHandler:    handler.NewHealthHandler(checks...),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          m,
		MetricsHandler:   promhttp.Handler(),
		Logger:           log,
	})

	server := newServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Str("notify", cfg.NotifyDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Deferred calls drain the notification queue, then close the sender and store.
	log.Info().Msg("server stopped")
	return nil
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// openStore builds the account store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (accountStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Info().Msg("using in-memory account store")
		return memory.NewAccountStore(), func() {}, nil

	case config.StorePostgres:
		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectRetries: cfg.DatabaseConnectRetries,
			OnConnectRetry: func(err error, wait time.Duration) {
				log.Warn().Err(err).Dur("retry_in", wait).Msg("postgres not reachable, retrying")
			},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.DatabaseMigrationsPath, log); err != nil {
			pool.Close()
			return nil, nil, err
		}

		store := postgresRepo.NewAccountStore(pool)
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// openSender builds the notification sender selected by NOTIFY_DRIVER.
func openSender(cfg *config.Config, log zerolog.Logger) (notification.Sender, func(), error) {
	switch cfg.NotifyDriver {
	case config.NotifyLog:
		return notification.NewLogSender(log), func() {}, nil

	case config.NotifyRabbitMQ:
		sender, err := notification.NewRabbitMQSender(notification.RabbitMQConfig{
			URL:        cfg.RabbitMQURL,
			Exchange:   cfg.RabbitMQExchange,
			RoutingKey: cfg.RabbitMQRoutingKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		log.Info().Str("exchange", cfg.RabbitMQExchange).Msg("connected to rabbitmq")

		return sender, func() {
			if err := sender.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close rabbitmq sender")
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown notify driver %q", cfg.NotifyDriver)
	}
}

var (
	_ accountStore = (*memory.AccountStore)(nil)
	_ accountStore = (*postgresRepo.AccountStore)(nil)
)
