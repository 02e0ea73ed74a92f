package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
	"github.com/iho/gotransfer/internal/infrastructure/logger"
	"github.com/iho/gotransfer/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	idempotencyErrorCode = "Idempotency-Key"
)

// storedResponse is what is kept under an idempotency key once the first
// request has finished.
type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware replays the outcome of a PUT or POST carrying an
// Idempotency-Key instead of executing it again.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Keys are scoped to the endpoint so one key cannot replay another route.
		scoped := r.Method + " " + r.URL.Path + " " + key
		log := logger.FromContext(r.Context(), m.logger)

		exists, cached, err := m.store.CheckAndSet(r.Context(), scoped, nil, m.ttl)
		if err != nil {
			log.Error().Err(err).Msg("idempotency check failed")
			writeIdempotencyError(w, http.StatusInternalServerError, "Idempotency check failed.")
			return
		}

		if exists {
			var stored storedResponse
			if err := json.Unmarshal(cached, &stored); err != nil || stored.Status == 0 {
				writeIdempotencyError(w, http.StatusConflict, "A request with this Idempotency-Key is still in progress.")
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(stored.Status)
			w.Write(stored.Body)
			return
		}

		// The client may disconnect once the response is written; finish bookkeeping anyway.
		ctx := context.WithoutCancel(r.Context())

		// A panicking handler ends in a 500 from Recovery, so the claim is dropped
		// before the panic continues up the chain.
		defer func() {
			if rec := recover(); rec != nil {
				if err := m.store.Release(ctx, scoped); err != nil {
					log.Warn().Err(err).Msg("failed to release idempotency key")
				}
				panic(rec)
			}
		}()

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		// 5xx outcomes (lock timeouts included) are retryable, so the key is freed.
		if recorder.statusCode >= http.StatusInternalServerError {
			if err := m.store.Release(ctx, scoped); err != nil {
				log.Warn().Err(err).Msg("failed to release idempotency key")
			}
			return
		}

		payload, err := json.Marshal(storedResponse{Status: recorder.statusCode, Body: recorder.body.Bytes()})
		if err != nil {
			log.Warn().Err(err).Msg("failed to encode idempotent response")
			return
		}
		if err := m.store.Update(ctx, scoped, payload, m.ttl); err != nil {
			log.Warn().Err(err).Msg("failed to store idempotent response")
		}
	})
}

func writeIdempotencyError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Errors: []dto.ErrorItem{{Code: idempotencyErrorCode, Description: description}},
	})
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
