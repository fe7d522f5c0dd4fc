package httpapi

import (
	"net/http"

	"github.com/clinicore/corpusengine/internal/httputil"
)

type healthResponse struct {
	Status        string `json:"status"`
	CorpusMode    string `json:"corpus_mode"`
	JobFabricMode string `json:"job_fabric_mode"`
	QueueDepth    int    `json:"queue_depth"`
}

// handleHealth always answers 200: a degraded corpus or job fabric is
// still a running service, just one operating in read-only or
// single-node mode — callers decide what "healthy enough" means.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", CorpusMode: "read-write", JobFabricMode: "standalone"}

	if s.svc.CorpusReadOnly != nil && s.svc.CorpusReadOnly() {
		resp.CorpusMode = "read-only"
	}
	if s.svc.Fabric != nil {
		resp.QueueDepth = s.svc.Fabric.QueueDepth()
		if s.svc.Fabric.IsDistributed() {
			resp.JobFabricMode = "distributed"
		}
	}

	httputil.WriteJSON(w, r, http.StatusOK, resp)
}
