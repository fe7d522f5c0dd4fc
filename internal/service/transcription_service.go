package service

import (
	"context"

	"github.com/clinicore/corpusengine/internal/repository"
)

// TranscriptionService enqueues transcription work for an uploaded audio
// artifact. The transcription itself runs asynchronously in the job
// fabric; this service only validates the artifact reference and hands
// off to JobService, returning a job the caller polls for the result.
type TranscriptionService struct {
	BaseService
	audio *repository.AudioRepository
	jobs  *JobService
}

// NewTranscriptionService builds a TranscriptionService.
func NewTranscriptionService(base BaseConfig, audio *repository.AudioRepository, jobs *JobService) *TranscriptionService {
	return &TranscriptionService{BaseService: NewBaseService(base), audio: audio, jobs: jobs}
}

// Enqueue validates that artifactID refers to an existing audio upload
// and enqueues a transcribe job against it.
func (s *TranscriptionService) Enqueue(ctx context.Context, artifactID string) (repository.Job, error) {
	if _, err := s.audio.Get(artifactID); err != nil {
		return repository.Job{}, err
	}
	return s.jobs.Enqueue(ctx, repository.JobTranscribe, artifactID)
}
