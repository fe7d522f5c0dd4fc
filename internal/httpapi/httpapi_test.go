package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/export"
	"github.com/clinicore/corpusengine/internal/jobs"
	"github.com/clinicore/corpusengine/internal/repository"
	"github.com/clinicore/corpusengine/internal/service"
	"github.com/clinicore/corpusengine/pkg/logger"
)

func newTestStore(t *testing.T) *corpusstore.Store {
	t.Helper()
	dir := t.TempDir()
	cfg := corpusstore.DefaultConfig(filepath.Join(dir, "corpus.ndjson"))
	s, err := corpusstore.Init(cfg, "cps_test1", "owner-cred", "salt-1")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestServer wires a full Server over a fresh in-memory-backed store,
// with a no-op job fabric so diarization/transcription enqueue without
// needing a real provider.
func newTestServer(t *testing.T) (*Server, *corpusstore.Store) {
	t.Helper()
	store := newTestStore(t)
	baseCfg := service.BaseConfig{Name: "test", Version: "v1", Audit: audit.NewLog(store)}

	jobsRepo := repository.NewJobRepository(store)
	auditLog := audit.NewLog(store)
	noop := func(ctx context.Context, job repository.Job) (string, error) { return "ok", nil }
	fabric, err := jobs.New(jobs.Config{Mode: "native", WorkerConcurrency: 1, QueueDepthBackoff: 2}, jobsRepo, auditLog, map[repository.JobKind]jobs.Handler{
		repository.JobTranscribe: noop,
		repository.JobDiarize:    noop,
	})
	require.NoError(t, err)

	audioRepo := repository.NewAudioRepository(store)
	jobService := service.NewJobService(baseCfg, fabric, jobsRepo)
	pipeline := export.New(store, repository.NewExportRepository(store), auditLog, t.TempDir(), []byte("signing-key"))

	svc := Services{
		Sessions:       service.NewSessionService(baseCfg, repository.NewSessionRepository(store)),
		Audio:          service.NewAudioService(baseCfg, audioRepo, service.AudioConfig{AudioDir: t.TempDir(), MaxUploadBytes: 1 << 20, AllowedExt: []string{"wav"}}),
		Transcription:  service.NewTranscriptionService(baseCfg, audioRepo, jobService),
		Diarization:    service.NewDiarizationService(baseCfg, audioRepo, jobService),
		Jobs:           jobService,
		Exports:        service.NewExportService(baseCfg, pipeline),
		Audit:          auditLog,
		Fabric:         fabric,
		CorpusReadOnly: store.IsReadOnly,
	}

	log := logger.New(logger.LoggingConfig{Level: "fatal"})
	return NewServer(svc, log, 1<<20, 100, 200), store
}

func TestHandleCreateSessionRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)

	body, err := json.Marshal(map[string]interface{}{"user_id": "user_1", "metadata": map[string]interface{}{"k": "v"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var env struct {
		Data struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotEmpty(t, env.Data.SessionID)
}

func TestHandleCreateSessionRejectsInvalidBody(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFinalizeSessionNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/sessions/does-not-exist/finalize", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealthReportsReadWriteByDefault(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data struct {
			CorpusMode    string `json:"corpus_mode"`
			JobFabricMode string `json:"job_fabric_mode"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "read-write", env.Data.CorpusMode)
	require.Equal(t, "standalone", env.Data.JobFabricMode)
}

func TestHandleTranscribeAppliesBackPressure(t *testing.T) {
	s, store := newTestServer(t)

	audioRepo := repository.NewAudioRepository(store)
	artifact, err := audioRepo.Create("sess_1", "/tmp/ignored.wav", "deadbeef", "audio/wav", 1000)
	require.NoError(t, err)

	// The fabric's backoff threshold is 2; fill the queue past it directly
	// through the job service, bypassing the HTTP layer, so the next
	// request observes back-pressure. Each input ref is distinct because
	// enqueueing the same (kind, input_ref) twice returns the existing job.
	for i := 0; i < 3; i++ {
		_, err := s.svc.Jobs.Enqueue(context.Background(), repository.JobTranscribe, fmt.Sprintf("%s-%d", artifact.ArtifactID, i))
		require.NoError(t, err)
	}

	body, err := json.Marshal(map[string]string{"artifact_id": artifact.ArtifactID})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/transcribe", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestHandleAuditQueryReturnsRecordedEvents(t *testing.T) {
	s, _ := newTestServer(t)

	body, err := json.Marshal(map[string]interface{}{"user_id": "user_7"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
	s.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/audit?user=user_7", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotEmpty(t, env.Data)
	for _, e := range env.Data {
		require.Equal(t, "user_7", e["user"])
	}
}
