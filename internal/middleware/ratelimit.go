package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/clinicore/corpusengine/internal/httputil"
)

// RateLimiter buckets requests per caller key (X-User-ID, falling back to
// remote IP), each with its own token bucket — grounded on
// infrastructure/middleware/ratelimit.go's RateLimiter, trimmed to the
// fixed requests-per-second form since the engine has no per-route window
// configuration.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewRateLimiter builds a RateLimiter allowing requestsPerSecond sustained
// with burst headroom, per caller key.
func NewRateLimiter(requestsPerSecond, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Handler rejects a request with 429 RateLimited once the caller's bucket
// is exhausted, setting Retry-After to one second (the bucket's refill
// period).
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := httputil.GetUserID(r)
		if key == "" {
			key = clientIP(r)
		}
		if key == "" {
			key = "unknown"
		}

		if !rl.limiterFor(key).Allow() {
			w.Header().Set("Retry-After", "1")
			httputil.WriteError(w, r, http.StatusTooManyRequests, "RateLimited", "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup drops every tracked limiter once the map grows unreasonably
// large, the same coarse bound infrastructure/middleware/ratelimit.go uses
// in place of per-key last-access tracking.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.limiters) > 10000 {
		rl.limiters = make(map[string]*rate.Limiter)
	}
}

// clientIP extracts a best-effort client address, trusting forwarded
// headers only when the direct peer is itself private/loopback — ported
// from infrastructure/httputil.ClientIP's trust model.
func clientIP(r *http.Request) string {
	remoteIP := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remoteIP); err == nil {
		remoteIP = host
	}

	parsed := net.ParseIP(remoteIP)
	trustForwarded := parsed != nil && (parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsLinkLocalUnicast())
	if trustForwarded {
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			candidate := strings.TrimSpace(strings.Split(xff, ",")[0])
			if host, _, err := net.SplitHostPort(candidate); err == nil {
				candidate = host
			}
			if candidate != "" {
				return candidate
			}
		}
	}
	return remoteIP
}
