package corpusstore

import "errors"

// Sentinel errors returned by Store operations, matching the C1 contract.
var (
	ErrAlreadyInitialized = errors.New("corpusstore: already initialized")
	ErrNotInitialized     = errors.New("corpusstore: not initialized")
	ErrSchemaMismatch     = errors.New("corpusstore: schema mismatch")
	ErrOwnershipMismatch  = errors.New("corpusstore: ownership mismatch")
	ErrIntegrityError     = errors.New("corpusstore: integrity error")
	ErrMutationDetected   = errors.New("corpusstore: mutation detected")
	ErrUnknownGroup       = errors.New("corpusstore: unknown group")
	ErrReadOnly           = errors.New("corpusstore: store is read-only after mutation detection")
)
