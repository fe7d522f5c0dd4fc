package service

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/clinicore/corpusengine/internal/repository"
)

func newTestAudioService(t *testing.T, maxBytes int64) *AudioService {
	t.Helper()
	store := newTestStore(t)
	return NewAudioService(newTestBaseConfig(store), repository.NewAudioRepository(store), AudioConfig{
		AudioDir:       filepath.Join(t.TempDir(), "audio"),
		MaxUploadBytes: maxBytes,
		AllowedExt:     []string{"wav", "mp3"},
	})
}

func TestAudioServiceUploadRejectsDisallowedExtension(t *testing.T) {
	svc := newTestAudioService(t, 1024)
	_, err := svc.Upload("sess_1", "clip.ogg", "audio/ogg", 4, bytes.NewReader([]byte("data")))
	if !IsValidation(err) {
		t.Fatalf("expected validation error for disallowed extension, got %v", err)
	}
}

func TestAudioServiceUploadRejectsOversizedFile(t *testing.T) {
	svc := newTestAudioService(t, 2)
	_, err := svc.Upload("sess_1", "clip.wav", "audio/wav", 100, bytes.NewReader([]byte("data")))
	if !IsValidation(err) {
		t.Fatalf("expected validation error for oversized upload, got %v", err)
	}
}

func TestAudioServiceUploadStoresContentAddressedFile(t *testing.T) {
	svc := newTestAudioService(t, 1024)
	content := []byte("fake wav bytes")

	artifact, err := svc.Upload("sess_1", "clip.wav", "audio/wav", int64(len(content)), bytes.NewReader(content))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if artifact.SHA256 == "" {
		t.Fatalf("expected a non-empty sha256")
	}
	if artifact.BytesRef == "" {
		t.Fatalf("expected a non-empty bytes_ref")
	}
}
