package handler

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 5 * time.Second

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler creates a new HealthHandler probing checks on readiness.
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 when every dependency answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ready"}

	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
			body[c.Name] = err.Error()
			continue
		}
		body[c.Name] = "ok"
	}

	writeJSON(w, status, body)
}
