package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/repository"
	"github.com/clinicore/corpusengine/pkg/redaction"
	"github.com/clinicore/corpusengine/pkg/resilience"
)

// errCancelled marks a job that stopped because of a cooperative cancel
// request rather than a handler failure.
var errCancelled = errors.New("jobs: cancel requested")

// process runs one dequeued job end to end: pending -> running, invoke the
// handler under retry and a timeout, then running -> succeeded/failed.
func (f *Fabric) process(ctx context.Context, kind repository.JobKind, jobID string) {
	job, err := f.jobs.Current(jobID)
	if err != nil {
		return
	}
	if job.Status != repository.JobPending {
		// Already picked up by another worker (distributed mode) or
		// already terminal; nothing to do.
		return
	}

	if f.cancels.IsRequested(ctx, jobID) {
		f.finish(job, repository.JobFailed, "", "cancelled")
		return
	}

	handler, ok := f.handlers[kind]
	if !ok {
		f.finish(job, repository.JobFailed, "", fmt.Sprintf("no handler registered for kind %q", kind))
		return
	}

	running, err := f.jobs.AppendTransition(job, repository.JobRunning, func(j *repository.Job) {
		j.StartedAt = time.Now().UTC()
	})
	if err != nil {
		return
	}
	if f.audit != nil {
		_, _ = f.audit.Record(audit.JobStarted, "", jobID, "success", map[string]string{"kind": string(kind)})
	}

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var resultRef string
	attempts := 0
	runErr := resilience.Retry(runCtx, f.retry, func() error {
		attempts++
		if f.cancels.IsRequested(runCtx, jobID) {
			return errCancelled
		}
		ref, err := handler(runCtx, running)
		if err != nil {
			return err
		}
		resultRef = ref
		return nil
	})

	running.Attempts = attempts
	if runErr != nil {
		cause := classifyFailure(runErr)
		f.finish(running, repository.JobFailed, "", cause)
		return
	}
	f.finish(running, repository.JobSucceeded, resultRef, "")
}

func (f *Fabric) finish(job repository.Job, status repository.JobStatus, resultRef, cause string) {
	final, err := f.jobs.AppendTransition(job, status, func(j *repository.Job) {
		j.FinishedAt = time.Now().UTC()
		j.ResultRef = resultRef
		j.Error = cause
	})
	if err != nil {
		return
	}
	SetQueueDepth(f.queueDepthHint())
	if f.audit == nil {
		return
	}
	switch status {
	case repository.JobSucceeded:
		_, _ = f.audit.Record(audit.JobSucceeded, "", final.JobID, "success", map[string]string{"result_ref": resultRef})
	case repository.JobFailed:
		_, _ = f.audit.Record(audit.JobFailed, "", final.JobID, "failure", map[string]string{"error": cause})
	}
}

// classifyFailure maps a handler error to a coarse error class, never the
// raw provider message (which may carry a credential or request body).
func classifyFailure(err error) string {
	if errors.Is(err, errCancelled) {
		return "cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return redaction.RedactAll(err.Error())
}
