package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clinicore/corpusengine/internal/httputil"
)

// maxUploadMemory bounds how much of a multipart upload gorilla/mux's
// underlying http.Request.ParseMultipartForm buffers in memory before
// spilling to a temp file.
const maxUploadMemory = 4 << 20

func (s *Server) handleDiarizationUpload(w http.ResponseWriter, r *http.Request) {
	if !s.checkBackPressure(w, r) {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httputil.WriteError(w, r, http.StatusBadRequest, "ValidationError", "invalid multipart upload", nil)
		return
	}
	sessionID := r.FormValue("session_id")

	file, header, err := r.FormFile("audio")
	if err != nil {
		httputil.WriteError(w, r, http.StatusBadRequest, "ValidationError", "audio: missing file field", nil)
		return
	}
	defer file.Close()

	artifact, err := s.svc.Audio.Upload(sessionID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}

	job, err := s.svc.Diarization.Enqueue(r.Context(), artifact.ArtifactID)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	httputil.WriteJSON(w, r, http.StatusAccepted, job)
}

type transcribeRequest struct {
	ArtifactID string `json:"artifact_id"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if !s.checkBackPressure(w, r) {
		return
	}

	var req transcribeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, http.StatusBadRequest, "ValidationError", "invalid request body", nil)
		return
	}

	job, err := s.svc.Transcription.Enqueue(r.Context(), req.ArtifactID)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	httputil.WriteJSON(w, r, http.StatusAccepted, job)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := s.svc.Jobs.Status(jobID)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	httputil.WriteJSON(w, r, http.StatusOK, job)
}
