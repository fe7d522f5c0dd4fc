package repository

import (
	"time"

	"github.com/clinicore/corpusengine/internal/corpuscrypto"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/ids"
)

// AudioRepository owns the append-only audio-artifact group. Audio bytes
// themselves live on disk under the configured audio directory, content
// addressed by SHA256; this repository only records the reference.
type AudioRepository struct {
	store *corpusstore.Store
}

// NewAudioRepository builds a repository bound to store.
func NewAudioRepository(store *corpusstore.Store) *AudioRepository {
	return &AudioRepository{store: store}
}

// Create records a new audio artifact already written to bytesRef on disk.
func (r *AudioRepository) Create(sessionID, bytesRef, sha256Hex, mime string, durationMS int64) (AudioArtifact, error) {
	id := ids.RecordID(r.store.CorpusID(), corpusstore.GroupAudioArtifact, corpuscrypto.Hash256([]byte(sha256Hex)))
	entity := AudioArtifact{
		ArtifactID: id,
		SessionID:  sessionID,
		BytesRef:   bytesRef,
		SHA256:     sha256Hex,
		Mime:       mime,
		DurationMS: durationMS,
		UploadedAt: time.Now().UTC(),
	}
	if _, err := GenericAppend(r.store, corpusstore.GroupAudioArtifact, id, entity); err != nil {
		return AudioArtifact{}, err
	}
	return entity, nil
}

// ListBySession returns every audio artifact recorded for sessionID.
func (r *AudioRepository) ListBySession(sessionID string) ([]AudioArtifact, error) {
	return GenericListByField(r.store, corpusstore.GroupAudioArtifact, func(a AudioArtifact) bool {
		return a.SessionID == sessionID
	})
}

// Get returns the artifact with the given id.
func (r *AudioRepository) Get(artifactID string) (AudioArtifact, error) {
	return GenericGetByField(r.store, corpusstore.GroupAudioArtifact, "audio_artifact", func(a AudioArtifact) bool {
		return a.ArtifactID == artifactID
	})
}
