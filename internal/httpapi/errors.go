// Package httpapi implements C10: the HTTP edge's envelope, error-taxonomy
// mapping, router, and per-resource handlers, each a thin wrapper over a
// C6 service. Grounded on cmd/gateway/main.go's router construction and
// infrastructure/middleware/errors.go's ServiceError taxonomy.
package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/llmrouter"
	"github.com/clinicore/corpusengine/internal/policy"
	"github.com/clinicore/corpusengine/internal/repository"
	"github.com/clinicore/corpusengine/internal/service"
)

// taxonomyStatus is one entry of spec.md §7's closed error taxonomy,
// carrying the HTTP status it maps to.
type taxonomyStatus struct {
	code int
	name string
}

// statusFor classifies err into the closed taxonomy (spec.md §7),
// returning the HTTP status and the safe status name to place in the
// envelope. A raw error's text is never forwarded — only the recognized
// sentinel's safe message is.
func statusFor(err error) taxonomyStatus {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		switch ve.Field {
		case "size":
			return taxonomyStatus{http.StatusRequestEntityTooLarge, "PayloadTooLarge"}
		case "filename":
			return taxonomyStatus{http.StatusUnsupportedMediaType, "UnsupportedMedia"}
		default:
			return taxonomyStatus{http.StatusBadRequest, "ValidationError"}
		}
	}
	if service.IsValidation(err) {
		return taxonomyStatus{http.StatusBadRequest, "ValidationError"}
	}
	if service.IsInvalidTransition(err) {
		return taxonomyStatus{http.StatusConflict, "InvalidTransition"}
	}
	if errors.Is(err, policy.ErrPolicyDenied) {
		if strings.Contains(err.Error(), "ownership") {
			return taxonomyStatus{http.StatusUnauthorized, "OwnershipDenied"}
		}
		return taxonomyStatus{http.StatusForbidden, "PolicyDenied"}
	}
	if repository.IsNotFound(err) {
		return taxonomyStatus{http.StatusNotFound, "NotFound"}
	}
	if errors.Is(err, corpusstore.ErrMutationDetected) || errors.Is(err, corpusstore.ErrReadOnly) {
		return taxonomyStatus{http.StatusInternalServerError, "MutationDetected"}
	}
	if errors.Is(err, corpusstore.ErrIntegrityError) {
		return taxonomyStatus{http.StatusInternalServerError, "IntegrityError"}
	}
	if errors.Is(err, llmrouter.ErrProviderRateLimited) {
		return taxonomyStatus{http.StatusTooManyRequests, "ProviderRateLimited"}
	}
	if errors.Is(err, llmrouter.ErrProviderInvalidRequest) {
		return taxonomyStatus{http.StatusBadRequest, "ProviderInvalidRequest"}
	}
	if errors.Is(err, llmrouter.ErrProviderUnavailable) {
		return taxonomyStatus{http.StatusServiceUnavailable, "ProviderUnavailable"}
	}
	return taxonomyStatus{http.StatusInternalServerError, "InternalError"}
}
