package jobs

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/corpuscrypto"
	"github.com/clinicore/corpusengine/internal/repository"
	"github.com/clinicore/corpusengine/pkg/resilience"
)

// Handler runs one job's work, returning a result reference (e.g. a
// transcript record id) on success.
type Handler func(ctx context.Context, job repository.Job) (resultRef string, err error)

// Config controls fabric construction, mirroring pkg/config.JobConfig.
type Config struct {
	Mode              string // "native" or "distributed"
	BrokerURL         string
	WorkerConcurrency int
	QueueDepthBackoff int
	MaxAttempts       int
	DefaultTimeout    time.Duration
}

// Fabric is the job fabric (C7): upload intake creates a Job via Jobs,
// Enqueue pushes it onto Queue, and workers (started with Run) pop items,
// invoke a per-kind Handler, and record status transitions.
type Fabric struct {
	jobs     *repository.JobRepository
	queue    Queue
	cancels  CancelRegistry
	audit    *audit.Log
	pool     *Pool
	handlers map[repository.JobKind]Handler
	retry    resilience.RetryConfig
	timeout  time.Duration
	distributed bool
	backoffThreshold int
}

// New builds a Fabric. handlers maps each job kind to its worker function;
// every kind the fabric will ever enqueue must have one.
func New(cfg Config, jobsRepo *repository.JobRepository, log *audit.Log, handlers map[repository.JobKind]Handler) (*Fabric, error) {
	retry := resilience.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	backoff := cfg.QueueDepthBackoff
	if backoff <= 0 {
		backoff = 1000
	}

	f := &Fabric{
		jobs:     jobsRepo,
		audit:    log,
		handlers: handlers,
		retry:    retry,
		timeout:  timeout,
		backoffThreshold: backoff,
	}

	kinds := make([]repository.JobKind, 0, len(handlers))
	for k := range handlers {
		kinds = append(kinds, k)
	}

	if cfg.Mode == "distributed" && cfg.BrokerURL != "" {
		opt, err := redis.ParseURL(cfg.BrokerURL)
		if err != nil {
			return nil, fmt.Errorf("jobs: parse broker url: %w", err)
		}
		client := redis.NewClient(opt)
		if !Probe(context.Background(), client) {
			return nil, fmt.Errorf("jobs: broker %s unreachable", cfg.BrokerURL)
		}
		rq := NewRedisQueue(client, "corpusengine", kinds)
		f.queue = rq
		f.cancels = NewRedisCancelRegistry(client, "corpusengine")
		f.distributed = true
	} else {
		f.queue = NewNativeQueue(1024)
		f.cancels = NewNativeCancelRegistry()
	}

	f.pool = NewPool(ResolveConcurrency(cfg.WorkerConcurrency), 0)
	return f, nil
}

// IsDistributed reports whether the fabric selected distributed mode at
// construction (the environment probe's outcome).
func (f *Fabric) IsDistributed() bool { return f.distributed }

// Enqueue creates a pending Job and pushes it onto the queue. Enqueueing
// twice with the same (kind, inputRef) digest returns the original job_id
// instead of creating a duplicate.
func (f *Fabric) Enqueue(ctx context.Context, kind repository.JobKind, inputRef string) (repository.Job, error) {
	digest := hex.EncodeToString(corpuscrypto.Hash256([]byte(string(kind) + "|" + inputRef)))

	// Claim on a candidate id before writing anything: a duplicate caller
	// observes isNew=false and never touches the repository, so no
	// orphaned pending record is ever created for it.
	candidateID := f.jobs.NewJobID(kind, inputRef)
	claimedID, isNew, err := f.queue.Claim(ctx, digest, candidateID)
	if err != nil {
		return repository.Job{}, err
	}
	if !isNew {
		existing, err := f.jobs.Current(claimedID)
		if err != nil {
			return repository.Job{}, err
		}
		return existing, nil
	}

	job, err := f.jobs.EnqueueWithID(claimedID, kind, inputRef)
	if err != nil {
		return repository.Job{}, err
	}

	if err := f.queue.Push(ctx, kind, job.JobID); err != nil {
		return repository.Job{}, err
	}
	SetQueueDepth(f.queueDepthHint())
	if f.audit != nil {
		_, _ = f.audit.Record(audit.JobEnqueued, "", job.JobID, "success", map[string]string{
			"kind": string(kind), "input_ref": inputRef,
		})
	}
	return job, nil
}

// RequestCancel marks jobID for cooperative cancellation and emits
// JOB_CANCEL_REQUESTED. The worker checks between stages, never mid-call.
func (f *Fabric) RequestCancel(ctx context.Context, jobID string) error {
	if err := f.cancels.Request(ctx, jobID); err != nil {
		return err
	}
	if f.audit != nil {
		_, _ = f.audit.Record(audit.JobCancelRequested, "", jobID, "success", nil)
	}
	return nil
}

// queueDepthHint is a best-effort depth signal for the back-pressure
// gauge; an exact count would require draining the queue, so native mode
// reports pending jobs from the repository projection instead.
func (f *Fabric) queueDepthHint() int {
	pending, err := f.jobs.ListPending()
	if err != nil {
		return 0
	}
	return len(pending)
}

// QueueDepth reports the current best-effort queue depth, for callers
// (the HTTP edge) deciding whether to apply back-pressure.
func (f *Fabric) QueueDepth() int { return f.queueDepthHint() }

// QueueDepthBackoff is the configured threshold at or above which new uploads
// should be rejected with 503 and a Retry-After hint.
func (f *Fabric) QueueDepthBackoff() int { return f.backoffThreshold }

// Run starts the worker pool; it blocks until ctx is cancelled or Stop is
// called.
func (f *Fabric) Run(ctx context.Context) error {
	return f.pool.Run(ctx, func(ctx context.Context, workerID int) {
		kind, jobID, ok := f.queue.Pop(ctx)
		if !ok {
			return
		}
		f.process(ctx, kind, jobID)
	})
}

// Stop stops the worker pool.
func (f *Fabric) Stop() { f.pool.Stop() }
