package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gotransfer/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/v1/accounts/{accountId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Post("/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})

	for _, path := range []string{"/v1/accounts/Id-1", "/v1/accounts/Id-2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/accounts", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	tests := []struct {
		method string
		path   string
		status string
		want   float64
	}{
		{http.MethodGet, "/v1/accounts/{accountId}", "418", 2},
		{http.MethodPost, "/v1/accounts", "200", 1},
		{http.MethodGet, unmatchedRoute, "404", 1},
	}

	for _, tt := range tests {
		got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(tt.method, tt.path, tt.status))
		if got != tt.want {
			t.Errorf("%s %s %s = %v, want %v", tt.method, tt.path, tt.status, got, tt.want)
		}
	}

	if got := testutil.CollectAndCount(m.HTTPDuration); got != 3 {
		t.Errorf("expected 3 duration series, got %d", got)
	}
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Errorf("expected in-flight gauge to return to 0, got %v", got)
	}
}
