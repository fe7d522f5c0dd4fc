package service

import (
	"strings"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/repository"
)

// EmbeddingService validates and appends embeddings for interactions.
type EmbeddingService struct {
	BaseService
	embeddings *repository.EmbeddingRepository
}

// NewEmbeddingService builds an EmbeddingService.
func NewEmbeddingService(base BaseConfig, embeddings *repository.EmbeddingRepository) *EmbeddingService {
	return &EmbeddingService{BaseService: NewBaseService(base), embeddings: embeddings}
}

// Append validates and records an embedding for interactionID.
func (s *EmbeddingService) Append(interactionID string, vector []float32, model string) (repository.Embedding, error) {
	if strings.TrimSpace(interactionID) == "" {
		return repository.Embedding{}, validationErr("interaction_id", "must not be empty")
	}
	if len(vector) == 0 {
		return repository.Embedding{}, validationErr("vector", "must not be empty")
	}

	created, err := s.embeddings.Create(interactionID, vector, model)
	if err != nil {
		return repository.Embedding{}, err
	}
	if s.audit != nil {
		_, _ = s.audit.Record(audit.EmbeddingAppended, "", created.InteractionID, "success", created)
	}
	return created, nil
}

// Get returns the embedding for interactionID.
func (s *EmbeddingService) Get(interactionID string) (repository.Embedding, error) {
	return s.embeddings.GetByInteraction(interactionID)
}
