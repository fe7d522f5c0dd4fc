// Package main is the corpus engine's HTTP edge entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/container"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/export"
	"github.com/clinicore/corpusengine/internal/httpapi"
	"github.com/clinicore/corpusengine/internal/jobs"
	"github.com/clinicore/corpusengine/internal/llmrouter"
	_ "github.com/clinicore/corpusengine/internal/llmrouter/providers/claude"
	_ "github.com/clinicore/corpusengine/internal/llmrouter/providers/ollama"
	"github.com/clinicore/corpusengine/internal/policy"
	"github.com/clinicore/corpusengine/internal/repository"
	"github.com/clinicore/corpusengine/internal/service"
	"github.com/clinicore/corpusengine/pkg/config"
	"github.com/clinicore/corpusengine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	policy.Configure("configs/policy.yaml")
	if _, err := policy.Current(); err != nil {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Fatal("load policy")
	}

	store, err := corpusstore.Open(corpusstore.DefaultConfig(cfg.Storage.CorpusPath))
	integrityViolation := errors.Is(err, corpusstore.ErrMutationDetected)
	if err != nil && !integrityViolation {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Fatal("open corpus store")
	}

	c := container.New(store, cfg.LLM.EmbeddingDim)
	container.Configure(c)

	auditLog := c.Audit()

	// A detected offline truncation is fatal to further mutation, not to
	// the process: record why, then trip the store read-only so it keeps
	// serving reads for the remainder of the process.
	if integrityViolation {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Error("corpus integrity violation detected, serving read-only")
		if _, auditErr := auditLog.Record(audit.IntegrityViolation, "system", cfg.Storage.CorpusPath, "denied", map[string]string{"error": err.Error()}); auditErr != nil {
			log.WithFields(map[string]interface{}{"error": auditErr.Error()}).Error("record integrity violation audit event")
		}
		store.TripReadOnly()
	}

	providerConfigs := make(map[string]map[string]string, len(cfg.LLM.Providers))
	for _, name := range cfg.LLM.Providers {
		providerConfigs[name] = map[string]string{}
	}
	router, err := llmrouter.New(auditLog, cfg.LLM.CacheSize, providerConfigs)
	if err != nil {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Fatal("build llm router")
	}

	if err := os.MkdirAll(cfg.Storage.AudioDir, 0o755); err != nil {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Fatal("create audio dir")
	}
	if err := os.MkdirAll(cfg.Storage.ExportsDir, 0o755); err != nil {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Fatal("create exports dir")
	}

	jobsRepo := c.Jobs()
	audioRepo := c.AudioFiles()
	interactions := c.Interactions()
	embeddings := c.Embeddings()

	handlers := map[repository.JobKind]jobs.Handler{
		repository.JobTranscribe: transcribeHandler(audioRepo, interactions, router, cfg.LLM.DefaultModel),
		repository.JobDiarize:    diarizeHandler(audioRepo, interactions, router, cfg.LLM.DefaultModel),
		repository.JobEmbed:      embedHandler(interactions, embeddings, router, cfg.LLM.DefaultModel),
	}

	fabric, err := jobs.New(jobs.Config{
		Mode:              cfg.Jobs.Mode,
		BrokerURL:         cfg.Jobs.BrokerURL,
		WorkerConcurrency: cfg.Jobs.WorkerConcurrency,
		QueueDepthBackoff: cfg.Jobs.QueueDepthBackoff,
		MaxAttempts:       cfg.Jobs.MaxAttempts,
		DefaultTimeout:    time.Duration(cfg.Jobs.DefaultJobTimeoutS) * time.Second,
	}, jobsRepo, auditLog, handlers)
	if err != nil {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Fatal("build job fabric")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := fabric.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithFields(map[string]interface{}{"error": err.Error()}).Error("job fabric stopped")
		}
	}()

	baseCfg := service.BaseConfig{Name: "corpusengine", Version: "v1", Audit: auditLog}
	jobService := service.NewJobService(baseCfg, fabric, jobsRepo)

	signingKey := []byte(cfg.Export.SigningKey)
	if len(signingKey) == 0 {
		signingKey = []byte("dev-only-export-signing-key")
		log.Warn("EXPORT_SIGNING_KEY not set, using an insecure development default")
	}
	pipeline := export.New(store, c.Exports(), auditLog, cfg.Storage.ExportsDir, signingKey)

	svc := httpapi.Services{
		Sessions:      service.NewSessionService(baseCfg, c.Sessions()),
		Audio:         service.NewAudioService(baseCfg, audioRepo, service.AudioConfig{AudioDir: cfg.Storage.AudioDir, MaxUploadBytes: cfg.Storage.MaxUploadBytes, AllowedExt: cfg.Storage.AllowedAudio}),
		Transcription: service.NewTranscriptionService(baseCfg, audioRepo, jobService),
		Diarization:   service.NewDiarizationService(baseCfg, audioRepo, jobService),
		Jobs:          jobService,
		Exports:       service.NewExportService(baseCfg, pipeline),
		Audit:         auditLog,
		Fabric:        fabric,
		CorpusReadOnly: store.IsReadOnly,
	}

	server := httpapi.NewServer(svc, log, cfg.Server.MaxBodyBytes, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server,
		ReadTimeout:       time.Duration(cfg.Server.RequestTimeoutS) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.RequestTimeoutS) * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithFields(map[string]interface{}{"addr": httpServer.Addr}).Info("corpusd starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithFields(map[string]interface{}{"error": err.Error()}).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()
	fabric.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Error("shutdown error")
	}
}

// transcribeHandler reads the audio artifact referenced by a transcribe
// job, routes it through the LLM router as a completion call, and
// records the result as an interaction so callers can retrieve it.
func transcribeHandler(audio *repository.AudioRepository, interactions *repository.InteractionRepository, router *llmrouter.Router, model string) jobs.Handler {
	return func(ctx context.Context, job repository.Job) (string, error) {
		artifact, err := audio.Get(job.InputRef)
		if err != nil {
			return "", err
		}
		prompt, err := readArtifactPrompt(artifact.BytesRef)
		if err != nil {
			return "", err
		}
		resp, err := router.Route(ctx, llmrouter.Request{Kind: llmrouter.KindCompletion, Model: model, Prompt: prompt})
		if err != nil {
			return "", err
		}
		rec, err := interactions.Create(artifact.SessionID, prompt, resp.Text, resp.Model, 0, map[string]interface{}{"job_kind": string(job.Kind), "artifact_id": artifact.ArtifactID})
		if err != nil {
			return "", err
		}
		return rec.InteractionID, nil
	}
}

// diarizeHandler mirrors transcribeHandler, recording the diarization
// result (a speaker-labeled transcript) as its own interaction.
func diarizeHandler(audio *repository.AudioRepository, interactions *repository.InteractionRepository, router *llmrouter.Router, model string) jobs.Handler {
	return func(ctx context.Context, job repository.Job) (string, error) {
		artifact, err := audio.Get(job.InputRef)
		if err != nil {
			return "", err
		}
		prompt, err := readArtifactPrompt(artifact.BytesRef)
		if err != nil {
			return "", err
		}
		resp, err := router.Route(ctx, llmrouter.Request{Kind: llmrouter.KindCompletion, Model: model, Prompt: "diarize:" + prompt})
		if err != nil {
			return "", err
		}
		rec, err := interactions.Create(artifact.SessionID, prompt, resp.Text, resp.Model, 0, map[string]interface{}{"job_kind": string(job.Kind), "artifact_id": artifact.ArtifactID})
		if err != nil {
			return "", err
		}
		return rec.InteractionID, nil
	}
}

// embedHandler routes an interaction's text through the LLM router's
// embedding path and stores the resulting vector. The embedding record
// is keyed by interaction id (one embedding per interaction), so that id
// is the job's result reference.
func embedHandler(interactions *repository.InteractionRepository, embeddings *repository.EmbeddingRepository, router *llmrouter.Router, model string) jobs.Handler {
	return func(ctx context.Context, job repository.Job) (string, error) {
		interaction, err := interactions.Get(job.InputRef)
		if err != nil {
			return "", err
		}
		resp, err := router.Route(ctx, llmrouter.Request{Kind: llmrouter.KindEmbedding, Model: model, Prompt: interaction.Response})
		if err != nil {
			return "", err
		}
		if _, err := embeddings.Create(interaction.InteractionID, resp.Embedding, resp.Model); err != nil {
			return "", err
		}
		return interaction.InteractionID, nil
	}
}

func readArtifactPrompt(bytesRef string) (string, error) {
	f, err := os.Open(filepath.Clean(bytesRef))
	if err != nil {
		return "", fmt.Errorf("open artifact %s: %w", bytesRef, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read artifact %s: %w", bytesRef, err)
	}
	return string(data), nil
}
