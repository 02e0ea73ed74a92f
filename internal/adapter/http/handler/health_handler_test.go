package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := HealthCheck{Name: "store", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name   string
		checks []HealthCheck
		status int
		body   map[string]string
	}{
		{
			name:   "no dependencies",
			status: http.StatusOK,
			body:   map[string]string{"status": "ready"},
		},
		{
			name:   "all healthy",
			checks: []HealthCheck{ok},
			status: http.StatusOK,
			body:   map[string]string{"status": "ready", "store": "ok"},
		},
		{
			name:   "one unhealthy",
			checks: []HealthCheck{ok, down},
			status: http.StatusServiceUnavailable,
			body:   map[string]string{"status": "unavailable", "store": "ok", "redis": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.checks...).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if len(body) != len(tt.body) {
				t.Fatalf("body = %v, want %v", body, tt.body)
			}
			for k, v := range tt.body {
				if body[k] != v {
					t.Errorf("%s = %q, want %q", k, body[k], v)
				}
			}
		})
	}
}
