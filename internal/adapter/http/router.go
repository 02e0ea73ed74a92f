package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/adapter/http/handler"
	"github.com/iho/gotransfer/internal/adapter/http/middleware"
	"github.com/iho/gotransfer/internal/infrastructure/metrics"
	"github.com/iho/gotransfer/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	TransferHandler *handler.TransferHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler

	// Optional. Without a store Idempotency-Key headers are ignored.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	// Optional. Metrics enables request instrumentation; MetricsHandler serves /metrics.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	Logger zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Put("/transfer", cfg.TransferHandler.Transfer)
			r.Get("/{accountId}", cfg.AccountHandler.Get)
		})

		// Ledger
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
