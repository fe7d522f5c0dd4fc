package middleware

import (
	"net/http"

	"github.com/clinicore/corpusengine/internal/httputil"
)

const defaultMaxBodyBytes int64 = 8 << 20

// BodyLimit caps request bodies via http.MaxBytesReader, answering
// 413 PayloadTooLarge on the Content-Length fast path and truncating any
// stream that exceeds the limit mid-read — grounded on
// BodyLimitMiddleware.Handler.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteError(w, r, http.StatusRequestEntityTooLarge, "PayloadTooLarge", "request body too large", map[string]int64{"limit_bytes": maxBytes})
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
