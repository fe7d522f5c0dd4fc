package service

import (
	"context"
	"testing"

	"github.com/clinicore/corpusengine/internal/repository"
)

func TestDiarizationServiceEnqueueRejectsUnknownArtifact(t *testing.T) {
	resetPolicyToDefault(t)
	store := newTestStore(t)
	jobSvc, _ := newTestJobService(t, store)
	audioRepo := repository.NewAudioRepository(store)

	svc := NewDiarizationService(newTestBaseConfig(store), audioRepo, jobSvc)
	if _, err := svc.Enqueue(context.Background(), "nonexistent"); err == nil {
		t.Fatalf("expected an error enqueueing against an unknown artifact")
	}
}

func TestDiarizationServiceEnqueue(t *testing.T) {
	resetPolicyToDefault(t)
	store := newTestStore(t)
	jobSvc, _ := newTestJobService(t, store)
	audioRepo := repository.NewAudioRepository(store)

	artifact, err := audioRepo.Create("sess_1", "/tmp/audio.wav", "abc123", "audio/wav", 1000)
	if err != nil {
		t.Fatalf("create artifact: %v", err)
	}

	svc := NewDiarizationService(newTestBaseConfig(store), audioRepo, jobSvc)
	job, err := svc.Enqueue(context.Background(), artifact.ArtifactID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.Kind != repository.JobDiarize {
		t.Fatalf("expected a diarize job, got %q", job.Kind)
	}
}
