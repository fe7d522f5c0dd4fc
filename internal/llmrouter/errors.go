package llmrouter

import (
	"context"
	"errors"
	"net/http"
)

// Normalized provider error classes. Every error a provider returns is
// mapped to exactly one of these before it leaves the router — callers
// never see a raw provider exception.
var (
	ErrProviderUnavailable   = errors.New("llmrouter: provider unavailable")
	ErrProviderRateLimited   = errors.New("llmrouter: provider rate limited")
	ErrProviderInvalidRequest = errors.New("llmrouter: provider rejected request")
)

// HTTPStatusError is returned by a provider's transport layer so Normalize
// can classify it by status code without parsing provider-specific bodies.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return http.StatusText(e.StatusCode)
}

// Normalize maps a raw provider/transport error to one of the closed
// error classes above. Unrecognized errors are treated as unavailable —
// the conservative choice for a downstream circuit breaker.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrProviderUnavailable
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return ErrProviderRateLimited
		case statusErr.StatusCode == http.StatusBadRequest || statusErr.StatusCode == http.StatusUnprocessableEntity:
			return ErrProviderInvalidRequest
		case statusErr.StatusCode >= 500 || statusErr.StatusCode == 0:
			return ErrProviderUnavailable
		}
	}
	return ErrProviderUnavailable
}
