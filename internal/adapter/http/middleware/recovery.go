package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/infrastructure/logger"
)

const internalErrorBody = `{"errors":[{"code":"Internal","description":"Internal server error."}]}`

// Recovery recovers from panics, logs them and answers 500.
func Recovery(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log := logger.FromContext(r.Context(), base)
				log.Error().
					Interface("error", rec).
					Str("stack", string(debug.Stack())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("panic recovered")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(internalErrorBody))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
