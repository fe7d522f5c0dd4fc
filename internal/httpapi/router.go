package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/httputil"
	"github.com/clinicore/corpusengine/internal/jobs"
	"github.com/clinicore/corpusengine/internal/middleware"
	"github.com/clinicore/corpusengine/internal/service"
	"github.com/clinicore/corpusengine/pkg/logger"
)

// Services bundles every C6 service (plus the job fabric and audit log
// needed directly at the edge) the router's handlers delegate to.
type Services struct {
	Sessions       *service.SessionService
	Audio          *service.AudioService
	Transcription  *service.TranscriptionService
	Diarization    *service.DiarizationService
	Jobs           *service.JobService
	Exports        *service.ExportService
	Audit          *audit.Log
	Fabric         *jobs.Fabric
	CorpusReadOnly func() bool
}

// Server owns the router and every dependency its handlers need.
type Server struct {
	svc    Services
	log    *logger.Logger
	router *mux.Router
}

// NewServer builds the gorilla/mux router with the middleware chain
// recovery -> requestid -> logging -> ratelimit -> bodylimit -> handler,
// matching cmd/gateway/main.go's router.Use chaining and
// SPEC_FULL.md §6's declared order.
func NewServer(svc Services, log *logger.Logger, maxBodyBytes int64, rateLimitRPS, rateLimitBurst int) *Server {
	s := &Server{svc: svc, log: log, router: mux.NewRouter()}

	limiter := middleware.NewRateLimiter(rateLimitRPS, rateLimitBurst)

	s.router.Use(middleware.Recovery(log))
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logging(log))
	s.router.Use(limiter.Handler)
	s.router.Use(middleware.BodyLimit(maxBodyBytes))

	s.registerRoutes()
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	api := s.router.PathPrefix("/").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/finalize", s.handleFinalizeSession).Methods(http.MethodPost)

	api.HandleFunc("/diarization/upload", s.handleDiarizationUpload).Methods(http.MethodPost)
	api.HandleFunc("/diarization/jobs/{id}", s.handleJobStatus).Methods(http.MethodGet)

	api.HandleFunc("/transcribe", s.handleTranscribe).Methods(http.MethodPost)

	api.HandleFunc("/exports", s.handleCreateExport).Methods(http.MethodPost)
	api.HandleFunc("/exports/{id}", s.handleGetExport).Methods(http.MethodGet)
	api.HandleFunc("/exports/{id}/verify", s.handleVerifyExport).Methods(http.MethodPost)

	api.HandleFunc("/audit", s.handleAuditQuery).Methods(http.MethodGet)
}

// checkBackPressure answers 503 BackPressure (with a Retry-After hint)
// when the job fabric's queue depth has crossed its configured threshold,
// before the edge accepts a new upload — spec.md §6's BackPressure code,
// SPEC_FULL.md §4.7's back-pressure signal.
func (s *Server) checkBackPressure(w http.ResponseWriter, r *http.Request) bool {
	if s.svc.Fabric == nil {
		return true
	}
	depth := s.svc.Fabric.QueueDepth()
	if depth < s.svc.Fabric.QueueDepthBackoff() {
		return true
	}
	if s.svc.Audit != nil {
		if _, err := s.svc.Audit.Record(audit.BackpressureRejected, httputil.GetUserID(r), r.URL.Path, "rejected", map[string]interface{}{"queue_depth": depth}); err != nil {
			s.log.WithFields(map[string]interface{}{"error": err.Error()}).Error("record backpressure audit event")
		}
	}
	w.Header().Set("Retry-After", "5")
	httputil.WriteError(w, r, http.StatusServiceUnavailable, "BackPressure", "job queue is backed up, retry later", nil)
	return false
}
