package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"mercator-hq/banker/pkg/telemetry/logging"
)

// Recovery turns a panic in a handler into a 500 JSON error and logs the
// stack. Internal details are not sent to the client.
func Recovery(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"error": map[string]string{
							"code":    "internal_error",
							"message": "An internal error occurred.",
						},
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
