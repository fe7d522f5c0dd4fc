package repository

import (
	"time"

	"github.com/clinicore/corpusengine/internal/corpuscrypto"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/ids"
)

// SessionRepository owns the append-only session group. A session's
// current state is the latest record with its session_id — a state
// transition is recorded by appending a new Session, never by editing the
// prior one. Forward-only enforcement of open->finalized->archived lives
// in the service layer; this repository just appends what it's given.
type SessionRepository struct {
	store *corpusstore.Store
}

// NewSessionRepository builds a repository bound to store.
func NewSessionRepository(store *corpusstore.Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// Create appends the initial (open) record for a new session.
func (r *SessionRepository) Create(userID string, metadata map[string]interface{}) (Session, error) {
	sessionID := ids.RecordID(r.store.CorpusID(), corpusstore.GroupSessions, corpuscrypto.Hash256([]byte(userID+time.Now().UTC().String())))
	entity := Session{
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		State:     SessionOpen,
		Metadata:  metadata,
	}
	if _, err := GenericAppend(r.store, corpusstore.GroupSessions, sessionID+"#0", entity); err != nil {
		return Session{}, err
	}
	return entity, nil
}

// AppendTransition appends a new Session record for sessionID recording
// newState, preserving the original CreatedAt/UserID/Metadata of prior.
func (r *SessionRepository) AppendTransition(prior Session, newState SessionState) (Session, error) {
	entity := prior
	entity.State = newState
	recordID := prior.SessionID + "#" + string(newState)
	if _, err := GenericAppend(r.store, corpusstore.GroupSessions, recordID, entity); err != nil {
		return Session{}, err
	}
	return entity, nil
}

// Current returns the latest (current-state) record for sessionID.
func (r *SessionRepository) Current(sessionID string) (Session, error) {
	all, err := GenericListByField(r.store, corpusstore.GroupSessions, func(s Session) bool {
		return s.SessionID == sessionID
	})
	if err != nil {
		return Session{}, err
	}
	if len(all) == 0 {
		return Session{}, NewNotFoundError("session", sessionID)
	}
	return all[len(all)-1], nil
}

// History returns every recorded state for sessionID in append order.
func (r *SessionRepository) History(sessionID string) ([]Session, error) {
	return GenericListByField(r.store, corpusstore.GroupSessions, func(s Session) bool {
		return s.SessionID == sessionID
	})
}
