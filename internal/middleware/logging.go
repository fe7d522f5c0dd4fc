package middleware

import (
	"net/http"
	"time"

	"github.com/clinicore/corpusengine/pkg/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code
// actually written, the same technique logging.go's responseWriter uses.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Logging logs one line per completed request (method, path, status,
// duration, request id) via the shared logrus-backed logger.
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			log.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  RequestIDFromContext(r.Context()),
				"remote_addr": r.RemoteAddr,
			}).Info("request completed")
		})
	}
}
