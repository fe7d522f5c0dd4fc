package service

import (
	"context"
	"strings"

	"github.com/clinicore/corpusengine/internal/jobs"
	"github.com/clinicore/corpusengine/internal/repository"
)

// JobService exposes the job fabric's enqueue/cancel/status surface to the
// transport layer without leaking internal/jobs' queue and worker-pool
// machinery past this boundary.
type JobService struct {
	BaseService
	fabric *jobs.Fabric
	jobs   *repository.JobRepository
}

// NewJobService builds a JobService.
func NewJobService(base BaseConfig, fabric *jobs.Fabric, jobsRepo *repository.JobRepository) *JobService {
	return &JobService{BaseService: NewBaseService(base), fabric: fabric, jobs: jobsRepo}
}

// Enqueue submits a unit of work of the given kind against inputRef,
// returning the job the caller should poll for status. Enqueueing the
// same (kind, inputRef) pair again returns the existing job rather than
// creating a duplicate.
func (s *JobService) Enqueue(ctx context.Context, kind repository.JobKind, inputRef string) (repository.Job, error) {
	if strings.TrimSpace(inputRef) == "" {
		return repository.Job{}, validationErr("input_ref", "must not be empty")
	}
	return s.fabric.Enqueue(ctx, kind, inputRef)
}

// Status returns the current status projection for jobID.
func (s *JobService) Status(jobID string) (repository.Job, error) {
	return s.jobs.Current(jobID)
}

// History returns every transition event recorded for jobID.
func (s *JobService) History(jobID string) ([]repository.Job, error) {
	return s.jobs.History(jobID)
}

// Cancel requests cooperative cancellation of jobID. The job's worker (if
// any) observes the request between stages or retry attempts rather than
// being interrupted mid-call.
func (s *JobService) Cancel(ctx context.Context, jobID string) error {
	return s.fabric.RequestCancel(ctx, jobID)
}
