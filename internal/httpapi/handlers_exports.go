package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clinicore/corpusengine/internal/export"
	"github.com/clinicore/corpusengine/internal/httputil"
)

type createExportRequest struct {
	Targets []export.Target `json:"targets"`
	UserID  string          `json:"user_id"`
}

func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	var req createExportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, http.StatusBadRequest, "ValidationError", "invalid request body", nil)
		return
	}

	created, err := s.svc.Exports.Create(r.Context(), req.Targets, req.UserID)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	httputil.WriteJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	exportID := mux.Vars(r)["id"]

	found, err := s.svc.Exports.Get(exportID)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	httputil.WriteJSON(w, r, http.StatusOK, found)
}

func (s *Server) handleVerifyExport(w http.ResponseWriter, r *http.Request) {
	exportID := mux.Vars(r)["id"]
	userID := httputil.GetUserID(r)

	report, err := s.svc.Exports.Verify(r.Context(), exportID, userID)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	httputil.WriteJSON(w, r, http.StatusOK, report)
}
