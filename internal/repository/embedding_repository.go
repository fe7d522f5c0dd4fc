package repository

import (
	"fmt"
	"time"

	"github.com/clinicore/corpusengine/internal/corpuscrypto"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/ids"
)

// EmbeddingRepository owns the append-only embedding group.
type EmbeddingRepository struct {
	store        *corpusstore.Store
	embeddingDim int
}

// NewEmbeddingRepository builds a repository bound to store, zero-padding
// every vector it creates to embeddingDim (spec default 768).
func NewEmbeddingRepository(store *corpusstore.Store, embeddingDim int) *EmbeddingRepository {
	if embeddingDim <= 0 {
		embeddingDim = 768
	}
	return &EmbeddingRepository{store: store, embeddingDim: embeddingDim}
}

// Create appends an embedding for interactionID, zero-padding vector up to
// the configured embedding dimension.
func (r *EmbeddingRepository) Create(interactionID string, vector []float32, model string) (Embedding, error) {
	if len(vector) > r.embeddingDim {
		return Embedding{}, fmt.Errorf("embeddings: %w: vector length %d exceeds embedding_dim %d", ErrInvalidInput, len(vector), r.embeddingDim)
	}
	padded := make([]float32, r.embeddingDim)
	copy(padded, vector)

	id := ids.RecordID(r.store.CorpusID(), corpusstore.GroupEmbeddings, corpuscrypto.Hash256([]byte(interactionID+model)))
	entity := Embedding{
		InteractionID: interactionID,
		Vector:        padded,
		Model:         model,
		Timestamp:     time.Now().UTC(),
	}

	if _, err := GenericAppend(r.store, corpusstore.GroupEmbeddings, id, entity); err != nil {
		return Embedding{}, err
	}
	return entity, nil
}

// GetByInteraction returns the embedding for interactionID. Per the data
// model invariant, an interaction with an embedding resolves to exactly
// one — the first (and only) match is returned.
func (r *EmbeddingRepository) GetByInteraction(interactionID string) (Embedding, error) {
	return GenericGetByField(r.store, corpusstore.GroupEmbeddings, "embedding", func(e Embedding) bool {
		return e.InteractionID == interactionID
	})
}
