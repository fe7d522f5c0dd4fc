package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clinicore/corpusengine/internal/httputil"
)

type createSessionRequest struct {
	UserID   string                 `json:"user_id"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, http.StatusBadRequest, "ValidationError", "invalid request body", nil)
		return
	}

	created, err := s.svc.Sessions.Create(req.UserID, req.Metadata, httputil.OwnershipVerified(r))
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	httputil.WriteJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleFinalizeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	updated, err := s.svc.Sessions.Finalize(sessionID)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	httputil.WriteJSON(w, r, http.StatusOK, updated)
}
