package service

import (
	"strings"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/ids"
)

// CorpusService wraps corpus lifecycle operations (initialization and
// ownership verification) that don't belong to any one repository.
type CorpusService struct {
	BaseService
	store *corpusstore.Store
}

// NewCorpusService builds a CorpusService bound to an already-open store.
func NewCorpusService(base BaseConfig, store *corpusstore.Store) *CorpusService {
	return &CorpusService{BaseService: NewBaseService(base), store: store}
}

// InitializeCorpus creates a fresh corpus file for (ownerCredential, salt)
// and emits CORPUS_INITIALIZED. Callers typically do this once at
// first-run, then reopen the same store on every subsequent start.
func InitializeCorpus(cfg corpusstore.Config, ownerCredential, salt string, log *audit.Log) (*corpusstore.Store, error) {
	if strings.TrimSpace(ownerCredential) == "" {
		return nil, validationErr("owner_credential", "must not be empty")
	}
	corpusID := ids.CorpusID(ownerCredential, salt)
	store, err := corpusstore.Init(cfg, corpusID, ownerCredential, salt)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = audit.NewLog(store)
	}
	_, _ = log.Record(audit.CorpusInitialized, "", corpusID, "success", map[string]string{"corpus_id": corpusID})
	return store, nil
}

// VerifyOwnership checks credential+salt against the store's recorded
// owner identity and emits OWNERSHIP_VERIFIED or OWNERSHIP_DENIED.
func (s *CorpusService) VerifyOwnership(ownerCredential, salt string) bool {
	ok := s.store.VerifyOwnership(ownerCredential, salt)
	if s.audit == nil {
		return ok
	}
	if ok {
		_, _ = s.audit.Record(audit.OwnershipVerified, "", s.store.CorpusID(), "success", nil)
	} else {
		_, _ = s.audit.Record(audit.OwnershipDenied, "", s.store.CorpusID(), "denied", nil)
	}
	return ok
}

// CorpusID returns the bound store's corpus id.
func (s *CorpusService) CorpusID() string { return s.store.CorpusID() }
