package httpapi

import (
	"net/http"

	"github.com/clinicore/corpusengine/internal/httputil"
	"github.com/clinicore/corpusengine/pkg/logger"
)

// writeServiceError maps err through the taxonomy and writes the envelope.
// Only the recognized taxonomy's safe message reaches the client;
// InternalError never echoes the underlying error text, since it may
// carry details the service layer didn't intend to expose — the raw
// error is logged server-side instead.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	ts := statusFor(err)
	message := ts.name
	if ts.name == "InternalError" {
		if log != nil {
			log.WithFields(map[string]interface{}{"error": err.Error(), "path": r.URL.Path}).Error("unhandled service error")
		}
		message = "internal server error"
	} else {
		message = err.Error()
	}
	httputil.WriteError(w, r, ts.code, ts.name, message, nil)
}
