package httpapi

import (
	"net/http"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/httputil"
)

// handleAuditQuery answers GET /audit, optionally narrowed by an
// operation and/or user JSONPath predicate (audit.ByOperation/ByUser),
// applied in sequence over the selected page.
func (s *Server) handleAuditQuery(w http.ResponseWriter, r *http.Request) {
	offset, limit := httputil.PaginationParams(r, 50, 500)

	events, err := s.svc.Audit.List(corpusstore.Selector{Offset: offset, Limit: limit})
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}

	if op := httputil.QueryString(r, "operation", ""); op != "" {
		events, err = audit.Filter(events, audit.ByOperation(audit.Operation(op)))
		if err != nil {
			writeServiceError(w, r, s.log, err)
			return
		}
	}
	if user := httputil.QueryString(r, "user", ""); user != "" {
		events, err = audit.Filter(events, audit.ByUser(user))
		if err != nil {
			writeServiceError(w, r, s.log, err)
			return
		}
	}

	httputil.WriteJSON(w, r, http.StatusOK, events)
}
