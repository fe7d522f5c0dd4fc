package repository

import (
	"time"

	"github.com/clinicore/corpusengine/internal/corpusstore"
)

// ExportRepository owns the append-only export group. Deletion is a soft
// tombstone record referencing the original export_id, never a removal of
// the prior manifest.
type ExportRepository struct {
	store *corpusstore.Store
}

// NewExportRepository builds a repository bound to store.
func NewExportRepository(store *corpusstore.Store) *ExportRepository {
	return &ExportRepository{store: store}
}

// Create records a newly assembled export bundle's manifest and signature
// under exportID, which the caller derives (deterministically, from
// creation time + content digest) before the manifest is signed — the
// signed bytes include export_id, so the id must exist before Create is
// called rather than being assigned by it.
func (r *ExportRepository) Create(exportID string, targets []string, artifacts []ExportArtifact, manifest map[string]any, signature string) (Export, error) {
	entity := Export{
		ExportID:  exportID,
		Targets:   targets,
		Artifacts: artifacts,
		Manifest:  manifest,
		Signature: signature,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := GenericAppend(r.store, corpusstore.GroupExports, exportID, entity); err != nil {
		return Export{}, err
	}
	return entity, nil
}

// Get returns the export with the given id, the latest record for that id
// reflecting any soft-delete tombstone.
func (r *ExportRepository) Get(exportID string) (Export, error) {
	all, err := GenericListByField(r.store, corpusstore.GroupExports, func(e Export) bool {
		return e.ExportID == exportID
	})
	if err != nil {
		return Export{}, err
	}
	if len(all) == 0 {
		return Export{}, NewNotFoundError("export", exportID)
	}
	return all[len(all)-1], nil
}

// MarkDeleted appends a tombstone record for exportID, preserving the
// manifest and signature for audit purposes while flagging it deleted.
func (r *ExportRepository) MarkDeleted(prior Export) (Export, error) {
	now := time.Now().UTC()
	entity := prior
	entity.DeletedAt = &now
	if _, err := GenericAppend(r.store, corpusstore.GroupExports, prior.ExportID+"#deleted", entity); err != nil {
		return Export{}, err
	}
	return entity, nil
}

// List returns every export record (including tombstones) in append order.
func (r *ExportRepository) List(sel corpusstore.Selector) ([]Export, error) {
	return GenericList[Export](r.store, corpusstore.GroupExports, sel)
}
