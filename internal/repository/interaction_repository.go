package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinicore/corpusengine/internal/corpuscrypto"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/ids"
)

// InteractionRepository owns the append-only interaction group.
type InteractionRepository struct {
	store *corpusstore.Store
}

// NewInteractionRepository builds a repository bound to store.
func NewInteractionRepository(store *corpusstore.Store) *InteractionRepository {
	return &InteractionRepository{store: store}
}

// Create appends a new interaction and returns its assigned id. A
// correction is created by calling Create again with
// Metadata["correction_of"] set to the prior interaction_id — the prior
// record is never touched.
func (r *InteractionRepository) Create(sessionID, prompt, response, model string, tokens int, metadata map[string]interface{}) (Interaction, error) {
	digest, err := json.Marshal(struct {
		SessionID string `json:"session_id"`
		Prompt    string `json:"prompt"`
		Response  string `json:"response"`
	}{sessionID, prompt, response})
	if err != nil {
		return Interaction{}, fmt.Errorf("interactions: %w", err)
	}

	entity := Interaction{
		InteractionID: ids.RecordID(r.store.CorpusID(), corpusstore.GroupInteractions, corpuscrypto.Hash256(digest)),
		SessionID:     sessionID,
		Prompt:        prompt,
		Response:      response,
		Model:         model,
		Tokens:        tokens,
		Timestamp:     time.Now().UTC(),
		Metadata:      metadata,
	}

	if _, err := GenericAppend(r.store, corpusstore.GroupInteractions, entity.InteractionID, entity); err != nil {
		return Interaction{}, err
	}
	return entity, nil
}

// Read returns a page of interactions in append order.
func (r *InteractionRepository) Read(sel corpusstore.Selector) ([]Interaction, error) {
	return GenericList[Interaction](r.store, corpusstore.GroupInteractions, sel)
}

// ListBySession returns every interaction recorded for sessionID.
func (r *InteractionRepository) ListBySession(sessionID string) ([]Interaction, error) {
	return GenericListByField(r.store, corpusstore.GroupInteractions, func(i Interaction) bool {
		return i.SessionID == sessionID
	})
}

// Get returns the interaction with the given id.
func (r *InteractionRepository) Get(interactionID string) (Interaction, error) {
	return GenericGetByField(r.store, corpusstore.GroupInteractions, "interaction", func(i Interaction) bool {
		return i.InteractionID == interactionID
	})
}
