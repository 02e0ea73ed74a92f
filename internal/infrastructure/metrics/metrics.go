package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
)

const namespace = "gotransfer"

// Notification outcomes.
const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationDropped = "dropped"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	Transfers        *prometheus.CounterVec
	TransferDuration prometheus.Histogram
	TransferAmount   prometheus.Histogram

	// Account metrics
	AccountOperations *prometheus.CounterVec

	// Notification metrics
	Notifications     *prometheus.CounterVec
	NotificationQueue prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		Transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Transfers by terminal state",
			},
			[]string{"state"},
		),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Duration of transfer operations",
			Buckets:   prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_amount",
			Help:      "Amounts of applied transfers",
			Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		// Account metrics
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_operations_total",
				Help:      "Total account operations by type and status",
			},
			[]string{"operation", "status"},
		),

		// Notification metrics
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Account notifications by outcome",
			},
			[]string{"outcome"},
		),
		NotificationQueue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notification_queue_depth",
			Help:      "Notifications waiting for a worker",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redis_operations_total",
				Help:      "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redis_errors_total",
				Help:      "Total Redis errors",
			},
			[]string{"operation"},
		),
	}
}

// TransferFinished records the terminal state of a transfer.
func (m *Metrics) TransferFinished(state domain.TransferState, amount decimal.Decimal, elapsed time.Duration) {
	m.Transfers.WithLabelValues(string(state)).Inc()
	m.TransferDuration.Observe(elapsed.Seconds())

	if state == domain.TransferDone {
		m.TransferAmount.Observe(amount.InexactFloat64())
	}
}

// AccountOperation counts an account operation outcome.
func (m *Metrics) AccountOperation(operation, status string) {
	m.AccountOperations.WithLabelValues(operation, status).Inc()
}

// Notification counts a notification outcome.
func (m *Metrics) Notification(outcome string) {
	m.Notifications.WithLabelValues(outcome).Inc()
}

// QueueDepth reports the number of queued notifications.
func (m *Metrics) QueueDepth(n int) {
	m.NotificationQueue.Set(float64(n))
}

// RedisOperation counts a Redis command.
func (m *Metrics) RedisOperation(operation string) {
	m.RedisOperations.WithLabelValues(operation).Inc()
}

// RedisError counts a failed Redis command.
func (m *Metrics) RedisError(operation string) {
	m.RedisErrors.WithLabelValues(operation).Inc()
}
