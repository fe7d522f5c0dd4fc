package service

import (
	"strings"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/repository"
)

// SessionService owns the Session state machine: open -> finalized ->
// archived, forward only. Attempting a backward or skipped transition
// raises ErrInvalidTransition rather than touching the repository.
type SessionService struct {
	BaseService
	sessions *repository.SessionRepository
}

// NewSessionService builds a SessionService.
func NewSessionService(base BaseConfig, sessions *repository.SessionRepository) *SessionService {
	return &SessionService{BaseService: NewBaseService(base), sessions: sessions}
}

// forwardTransitions maps each state to the single state it may advance
// to; a state absent from this map (archived) is terminal.
var forwardTransitions = map[repository.SessionState]repository.SessionState{
	repository.SessionOpen:      repository.SessionFinalized,
	repository.SessionFinalized: repository.SessionArchived,
}

// Create opens a new session for userID, verified against ownership
// policy by the caller (ownershipVerified is passed through from the
// transport layer, which is where a credential actually gets checked).
func (s *SessionService) Create(userID string, metadata map[string]interface{}, ownershipVerified bool) (repository.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return repository.Session{}, validationErr("user_id", "must not be empty")
	}
	if err := requireOwnership(ownershipVerified); err != nil {
		s.emitDenied("SESSION_CREATE", userID, err)
		return repository.Session{}, err
	}

	created, err := s.sessions.Create(userID, metadata)
	if err != nil {
		return repository.Session{}, err
	}
	s.emit(audit.SessionCreated, userID, created.SessionID, created)
	return created, nil
}

// Transition advances sessionID to newState, one forward step at a time.
func (s *SessionService) Transition(sessionID string, newState repository.SessionState) (repository.Session, error) {
	current, err := s.sessions.Current(sessionID)
	if err != nil {
		return repository.Session{}, err
	}

	allowed, ok := forwardTransitions[current.State]
	if !ok || allowed != newState {
		return repository.Session{}, transitionErr("session", string(current.State), string(newState))
	}

	updated, err := s.sessions.AppendTransition(current, newState)
	if err != nil {
		return repository.Session{}, err
	}

	if op, ok := transitionOperations[newState]; ok {
		s.emit(op, updated.UserID, updated.SessionID, updated)
	}
	return updated, nil
}

// transitionOperations maps each reachable forward state to the audit
// operation recorded when a session lands in it, so every state-mutating
// transition leaves an event, not just finalize.
var transitionOperations = map[repository.SessionState]audit.Operation{
	repository.SessionFinalized: audit.SessionFinalized,
	repository.SessionArchived:  audit.SessionArchived,
}

// Finalize is a convenience wrapper over Transition(sessionID, SessionFinalized).
func (s *SessionService) Finalize(sessionID string) (repository.Session, error) {
	return s.Transition(sessionID, repository.SessionFinalized)
}

// Archive is a convenience wrapper over Transition(sessionID, SessionArchived).
func (s *SessionService) Archive(sessionID string) (repository.Session, error) {
	return s.Transition(sessionID, repository.SessionArchived)
}

func (s *SessionService) emit(op audit.Operation, user, resource string, payload interface{}) {
	if s.audit == nil {
		return
	}
	_, _ = s.audit.Record(op, user, resource, "success", payload)
}

func (s *SessionService) emitDenied(resource, user string, cause error) {
	if s.audit == nil {
		return
	}
	_, _ = s.audit.Record(audit.PolicyDenied, user, resource, "denied", map[string]string{"reason": cause.Error()})
}
