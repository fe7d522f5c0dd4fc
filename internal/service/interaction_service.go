package service

import (
	"strings"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/repository"
)

// InteractionService validates and appends prompt/response exchanges.
type InteractionService struct {
	BaseService
	interactions *repository.InteractionRepository
}

// NewInteractionService builds an InteractionService.
func NewInteractionService(base BaseConfig, interactions *repository.InteractionRepository) *InteractionService {
	return &InteractionService{BaseService: NewBaseService(base), interactions: interactions}
}

// Append validates and records one interaction. A correction is appended
// by setting metadata["correction_of"] to the prior interaction's id —
// the service never edits a prior record.
func (s *InteractionService) Append(sessionID, prompt, response, model string, tokens int, metadata map[string]interface{}, ownershipVerified bool) (repository.Interaction, error) {
	if strings.TrimSpace(sessionID) == "" {
		return repository.Interaction{}, validationErr("session_id", "must not be empty")
	}
	if strings.TrimSpace(prompt) == "" {
		return repository.Interaction{}, validationErr("prompt", "must not be empty")
	}
	if tokens < 0 {
		return repository.Interaction{}, validationErr("tokens", "must not be negative")
	}
	if err := requireOwnership(ownershipVerified); err != nil {
		return repository.Interaction{}, err
	}

	created, err := s.interactions.Create(sessionID, prompt, response, model, tokens, metadata)
	if err != nil {
		return repository.Interaction{}, err
	}
	if s.audit != nil {
		_, _ = s.audit.Record(audit.InteractionAppended, sessionID, created.InteractionID, "success", created)
	}
	return created, nil
}

// ListBySession returns every interaction recorded for sessionID.
func (s *InteractionService) ListBySession(sessionID string) ([]repository.Interaction, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, validationErr("session_id", "must not be empty")
	}
	return s.interactions.ListBySession(sessionID)
}
