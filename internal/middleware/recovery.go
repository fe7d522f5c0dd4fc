package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/clinicore/corpusengine/internal/httputil"
	"github.com/clinicore/corpusengine/pkg/logger"
)

// Recovery recovers from a panic in any downstream handler, logs it with
// a stack trace, and answers with an InternalError envelope instead of
// crashing the process — grounded on RecoveryMiddleware.Handler.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := debug.Stack()
					log.WithFields(map[string]interface{}{
						"panic":      fmt.Sprintf("%v", rec),
						"stack":      string(stack),
						"path":       r.URL.Path,
						"method":     r.Method,
						"request_id": RequestIDFromContext(r.Context()),
					}).Error("panic recovered")

					httputil.WriteError(w, r, http.StatusInternalServerError, "InternalError", "internal server error", nil)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
