package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/clinicore/corpusengine/internal/repository"
)

// AudioService validates and stores uploaded audio artifacts
// content-addressed under AudioDir, then records the reference.
// Transcription/diarization job enqueueing is the caller's responsibility
// (DiarizationService/TranscriptionService in the job fabric layer) —
// this service only owns artifact intake.
type AudioService struct {
	BaseService
	audioFiles     *repository.AudioRepository
	audioDir       string
	maxUploadBytes int64
	allowedExt     map[string]bool
}

// AudioConfig controls upload validation.
type AudioConfig struct {
	AudioDir       string
	MaxUploadBytes int64
	AllowedExt     []string
}

// NewAudioService builds an AudioService.
func NewAudioService(base BaseConfig, audioFiles *repository.AudioRepository, cfg AudioConfig) *AudioService {
	allowed := make(map[string]bool, len(cfg.AllowedExt))
	for _, ext := range cfg.AllowedExt {
		allowed[strings.ToLower(ext)] = true
	}
	return &AudioService{
		BaseService:    NewBaseService(base),
		audioFiles:     audioFiles,
		audioDir:       cfg.AudioDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		allowedExt:     allowed,
	}
}

// Upload validates filename/size/mime, writes r's content to a
// content-addressed path under audioDir, and records the artifact.
func (s *AudioService) Upload(sessionID, filename, mime string, size int64, r io.Reader) (repository.AudioArtifact, error) {
	if strings.TrimSpace(sessionID) == "" {
		return repository.AudioArtifact{}, validationErr("session_id", "must not be empty")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !s.allowedExt[ext] {
		return repository.AudioArtifact{}, validationErr("filename", fmt.Sprintf("extension %q is not an allowed audio type", ext))
	}
	if size > s.maxUploadBytes {
		return repository.AudioArtifact{}, validationErr("size", fmt.Sprintf("%d bytes exceeds the %d byte upload limit", size, s.maxUploadBytes))
	}

	if err := os.MkdirAll(s.audioDir, 0o700); err != nil {
		return repository.AudioArtifact{}, fmt.Errorf("service: create audio dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.audioDir, "upload-*")
	if err != nil {
		return repository.AudioArtifact{}, fmt.Errorf("service: create temp upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	tmp.Close()
	if err != nil {
		return repository.AudioArtifact{}, fmt.Errorf("service: write upload: %w", err)
	}
	if written > s.maxUploadBytes {
		return repository.AudioArtifact{}, validationErr("size", "upload exceeded the configured limit mid-stream")
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	finalPath := filepath.Join(s.audioDir, sum+"."+ext)
	if _, err := os.Stat(finalPath); os.IsNotExist(err) {
		if err := os.Rename(tmp.Name(), finalPath); err != nil {
			return repository.AudioArtifact{}, fmt.Errorf("service: finalize upload: %w", err)
		}
	}

	mimeType := mime
	if mimeType == "" {
		mimeType = "audio/" + ext
	}

	return s.audioFiles.Create(sessionID, finalPath, sum, mimeType, 0)
}
