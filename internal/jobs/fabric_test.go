package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/repository"
)

func newTestStore(t *testing.T) *corpusstore.Store {
	t.Helper()
	dir := t.TempDir()
	cfg := corpusstore.DefaultConfig(filepath.Join(dir, "corpus.ndjson"))
	s, err := corpusstore.Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestFabric(t *testing.T, handlers map[repository.JobKind]Handler) (*Fabric, *repository.JobRepository) {
	t.Helper()
	store := newTestStore(t)
	jobsRepo := repository.NewJobRepository(store)
	log := audit.NewLog(store)

	f, err := New(Config{
		Mode:              "native",
		WorkerConcurrency: 2,
		MaxAttempts:       2,
		DefaultTimeout:    2 * time.Second,
	}, jobsRepo, log, handlers)
	if err != nil {
		t.Fatalf("new fabric: %v", err)
	}
	return f, jobsRepo
}

func TestEnqueueIsIdempotentForSameInputDigest(t *testing.T) {
	f, jobsRepo := newTestFabric(t, map[repository.JobKind]Handler{
		repository.JobTranscribe: func(ctx context.Context, job repository.Job) (string, error) { return "ok", nil },
	})

	first, err := f.Enqueue(context.Background(), repository.JobTranscribe, "artifact-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	second, err := f.Enqueue(context.Background(), repository.JobTranscribe, "artifact-1")
	if err != nil {
		t.Fatalf("enqueue again: %v", err)
	}
	if first.JobID != second.JobID {
		t.Fatalf("expected same job_id for duplicate input, got %q and %q", first.JobID, second.JobID)
	}

	// The duplicate call must not leave behind an orphaned pending record
	// that no worker will ever pop.
	pending, err := jobsRepo.ListPending()
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly 1 pending job after a duplicate enqueue, got %d", len(pending))
	}
}

func TestRunProcessesJobToSuccess(t *testing.T) {
	f, jobsRepo := newTestFabric(t, map[repository.JobKind]Handler{
		repository.JobTranscribe: func(ctx context.Context, job repository.Job) (string, error) { return "transcript-1", nil },
	})

	job, err := f.Enqueue(context.Background(), repository.JobTranscribe, "artifact-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() { f.Run(ctx); close(done) }()
	<-done

	final, err := jobsRepo.Current(job.JobID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if final.Status != repository.JobSucceeded {
		t.Fatalf("expected succeeded, got %q (error=%q)", final.Status, final.Error)
	}
	if final.ResultRef != "transcript-1" {
		t.Fatalf("expected result_ref to be carried through, got %q", final.ResultRef)
	}
}

func TestRunRetriesThenFailsWithClassifiedError(t *testing.T) {
	calls := 0
	f, jobsRepo := newTestFabric(t, map[repository.JobKind]Handler{
		repository.JobTranscribe: func(ctx context.Context, job repository.Job) (string, error) {
			calls++
			return "", errors.New("provider token sk-abc123 rejected request")
		},
	})

	job, err := f.Enqueue(context.Background(), repository.JobTranscribe, "artifact-2")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() { f.Run(ctx); close(done) }()
	<-done

	final, err := jobsRepo.Current(job.JobID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if final.Status != repository.JobFailed {
		t.Fatalf("expected failed, got %q", final.Status)
	}
	if calls < 2 {
		t.Fatalf("expected the handler to be retried, got %d calls", calls)
	}
	if final.Error == "" {
		t.Fatalf("expected a non-empty error class")
	}
}

func TestRequestCancelStopsAPendingJob(t *testing.T) {
	f, jobsRepo := newTestFabric(t, map[repository.JobKind]Handler{
		repository.JobTranscribe: func(ctx context.Context, job repository.Job) (string, error) { return "ok", nil },
	})

	job, err := f.Enqueue(context.Background(), repository.JobTranscribe, "artifact-3")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := f.RequestCancel(context.Background(), job.JobID); err != nil {
		t.Fatalf("request cancel: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() { f.Run(ctx); close(done) }()
	<-done

	final, err := jobsRepo.Current(job.JobID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if final.Status != repository.JobFailed || final.Error != "cancelled" {
		t.Fatalf("expected a cancelled job to end up failed with cause cancelled, got status=%q error=%q", final.Status, final.Error)
	}
}

func TestQueueDepthReflectsPendingJobs(t *testing.T) {
	f, _ := newTestFabric(t, map[repository.JobKind]Handler{
		repository.JobTranscribe: func(ctx context.Context, job repository.Job) (string, error) { return "ok", nil },
	})

	if _, err := f.Enqueue(context.Background(), repository.JobTranscribe, "artifact-4"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if depth := f.QueueDepth(); depth != 1 {
		t.Fatalf("expected queue depth 1, got %d", depth)
	}
}

func TestQueueDepthBackoffDefaultsWhenUnconfigured(t *testing.T) {
	f, _ := newTestFabric(t, map[repository.JobKind]Handler{
		repository.JobTranscribe: func(ctx context.Context, job repository.Job) (string, error) { return "ok", nil },
	})
	if f.QueueDepthBackoff() <= 0 {
		t.Fatalf("expected a positive default backoff threshold, got %d", f.QueueDepthBackoff())
	}
}
