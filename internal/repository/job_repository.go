package repository

import (
	"time"

	"github.com/clinicore/corpusengine/internal/corpuscrypto"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/ids"
)

// JobRepository owns the append-only job-transition group. Each Job record
// is one status-transition event; current status is a read projection over
// the latest event for a job_id.
type JobRepository struct {
	store *corpusstore.Store
}

// NewJobRepository builds a repository bound to store.
func NewJobRepository(store *corpusstore.Store) *JobRepository {
	return &JobRepository{store: store}
}

// Enqueue appends the initial pending event for a new job.
func (r *JobRepository) Enqueue(kind JobKind, inputRef string) (Job, error) {
	return r.EnqueueWithID(r.NewJobID(kind, inputRef), kind, inputRef)
}

// NewJobID generates a candidate id for a not-yet-persisted job, without
// writing anything. Callers that need to deduplicate before committing a
// record (the job fabric's idempotent Enqueue) claim this id first and
// only call EnqueueWithID once the claim confirms it's genuinely new.
func (r *JobRepository) NewJobID(kind JobKind, inputRef string) string {
	return ids.RecordID(r.store.CorpusID(), corpusstore.GroupJobs, corpuscrypto.Hash256([]byte(string(kind)+inputRef+time.Now().UTC().String())))
}

// EnqueueWithID appends the initial pending event for a new job under a
// pre-generated id.
func (r *JobRepository) EnqueueWithID(id string, kind JobKind, inputRef string) (Job, error) {
	entity := Job{
		JobID:     id,
		Kind:      kind,
		InputRef:  inputRef,
		Status:    JobPending,
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := GenericAppend(r.store, corpusstore.GroupJobs, id+"#0", entity); err != nil {
		return Job{}, err
	}
	return entity, nil
}

// AppendTransition appends a new transition event for an existing job,
// carrying forward its identity fields from prior.
func (r *JobRepository) AppendTransition(prior Job, status JobStatus, mutate func(*Job)) (Job, error) {
	entity := prior
	entity.Status = status
	if mutate != nil {
		mutate(&entity)
	}
	recordID := prior.JobID + "#" + string(status) + "#" + time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := GenericAppend(r.store, corpusstore.GroupJobs, recordID, entity); err != nil {
		return Job{}, err
	}
	return entity, nil
}

// Current returns the latest transition event for jobID.
func (r *JobRepository) Current(jobID string) (Job, error) {
	history, err := r.History(jobID)
	if err != nil {
		return Job{}, err
	}
	if len(history) == 0 {
		return Job{}, NewNotFoundError("job", jobID)
	}
	return history[len(history)-1], nil
}

// History returns every recorded transition for jobID in append order.
func (r *JobRepository) History(jobID string) ([]Job, error) {
	return GenericListByField(r.store, corpusstore.GroupJobs, func(j Job) bool {
		return j.JobID == jobID
	})
}

// ListPending returns the current projection of every job whose latest
// event is still pending, in append order — used by the job fabric to
// rebuild its queue on startup.
func (r *JobRepository) ListPending() ([]Job, error) {
	all, err := GenericList[Job](r.store, corpusstore.GroupJobs, corpusstore.Selector{})
	if err != nil {
		return nil, err
	}
	latest := map[string]Job{}
	order := []string{}
	for _, j := range all {
		if _, ok := latest[j.JobID]; !ok {
			order = append(order, j.JobID)
		}
		latest[j.JobID] = j
	}
	out := make([]Job, 0, len(order))
	for _, id := range order {
		if latest[id].Status == JobPending {
			out = append(out, latest[id])
		}
	}
	return out, nil
}
