// Package middleware implements C10's request pipeline: recovery, request
// ID/logging, rate limiting, and body-size limiting, chained in that order
// ahead of every route handler. Adapted from
// infrastructure/middleware/{recovery,logging,ratelimit,bodylimit}.go.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey int

const requestIDKey contextKey = iota

// NewRequestID generates a fresh request id, the same uuid.New().String()
// technique infrastructure/logging.NewTraceID uses for trace ids.
func NewRequestID() string {
	return uuid.New().String()
}

// WithRequestID returns a context carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID extracts X-Request-ID from the incoming request or generates
// one, stashes it on the request context, sets it on the request header
// (where internal/httputil's envelope writer reads it back without
// importing this package), and echoes it on the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = NewRequestID()
		}
		r = r.WithContext(WithRequestID(r.Context(), id))
		r.Header.Set("X-Request-ID", id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
