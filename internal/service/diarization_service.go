package service

import (
	"context"

	"github.com/clinicore/corpusengine/internal/repository"
)

// DiarizationService enqueues speaker-diarization work for an uploaded
// audio artifact, mirroring TranscriptionService's shape: validate the
// reference, hand off to the job fabric, return the job for polling.
type DiarizationService struct {
	BaseService
	audio *repository.AudioRepository
	jobs  *JobService
}

// NewDiarizationService builds a DiarizationService.
func NewDiarizationService(base BaseConfig, audio *repository.AudioRepository, jobs *JobService) *DiarizationService {
	return &DiarizationService{BaseService: NewBaseService(base), audio: audio, jobs: jobs}
}

// Enqueue validates that artifactID refers to an existing audio upload
// and enqueues a diarize job against it.
func (s *DiarizationService) Enqueue(ctx context.Context, artifactID string) (repository.Job, error) {
	if _, err := s.audio.Get(artifactID); err != nil {
		return repository.Job{}, err
	}
	return s.jobs.Enqueue(ctx, repository.JobDiarize, artifactID)
}
