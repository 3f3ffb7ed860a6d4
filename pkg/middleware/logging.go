package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/simterra/workspace/pkg/contextkeys"
	"github.com/simterra/workspace/pkg/httputil"
	"github.com/simterra/workspace/pkg/observability"
)

// statusWriter captures the response status for the access log
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Logging tags each request with a request id, injects a request-scoped
// logger into the context, writes an access log line, and converts handler
// panics into 500 responses. metrics may be nil.
func Logging(logger *observability.Logger, metrics *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			reqLogger := logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			})

			ctx := contextkeys.WithRequestID(r.Context(), requestID)
			ctx = contextkeys.WithLogger(ctx, reqLogger)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			sw.Header().Set("X-Request-ID", requestID)

			defer func() {
				if rec := recover(); rec != nil {
					reqLogger.WithField("panic", rec).Error("handler panicked")
					httputil.WriteErrorMessage(sw, http.StatusInternalServerError, "internal server error")
				}

				reqLogger.WithFields(map[string]interface{}{
					"status":      sw.status,
					"duration_ms": time.Since(start).Milliseconds(),
				}).Info("request handled")
			}()

			next.ServeHTTP(sw, r.WithContext(ctx))
		})
	}
}

// LoggerFromContext returns the request-scoped logger, or fallback when the
// request did not pass through Logging.
func LoggerFromContext(ctx context.Context, fallback *observability.Logger) *observability.Logger {
	if l, ok := ctx.Value(contextkeys.LoggerKey).(*observability.Logger); ok {
		return l
	}
	return fallback
}
