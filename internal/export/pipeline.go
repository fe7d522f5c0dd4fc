// Package export implements C9: assembling a signed, verifiable export
// bundle from a deterministic selection of corpus records, optionally
// redacting PII per policy, and later re-verifying or soft-deleting it.
package export

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/ids"
	"github.com/clinicore/corpusengine/internal/policy"
	"github.com/clinicore/corpusengine/internal/repository"
)

// textFields lists the record fields eligible for PII redaction when a
// policy requires it. Records are generic maps decoded from JSON, so
// fields are addressed by name rather than by struct tag.
var textFields = []string{"text", "transcript", "note", "content"}

// Pipeline ties record selection, manifest assembly, signing, and
// persistence together behind CreateExport/Verify/Delete.
type Pipeline struct {
	store  *corpusstore.Store
	repo   *repository.ExportRepository
	audit  *audit.Log
	dir    string
	key    []byte
	corpus string
}

// New builds a Pipeline. exportsDir is the directory artifact files are
// written to; signingKey is the HS256 key manifests are signed with.
func New(store *corpusstore.Store, repo *repository.ExportRepository, log *audit.Log, exportsDir string, signingKey []byte) *Pipeline {
	return &Pipeline{
		store:  store,
		repo:   repo,
		audit:  log,
		dir:    exportsDir,
		key:    signingKey,
		corpus: store.CorpusID(),
	}
}

// VerifyReport is the outcome of re-checking an export's artifacts and
// signature against its recorded manifest.
type VerifyReport struct {
	ExportID    string   `json:"export_id"`
	OK          bool     `json:"ok"`
	Mismatches  []string `json:"mismatches,omitempty"`
	SignatureOK bool     `json:"signature_ok"`
}

// CreateExport resolves targets against a point-in-time snapshot of their
// groups, optionally redacts PII per the active policy, serializes each
// target's batch to a canonical artifact file under the pipeline's
// exports directory, signs the resulting manifest, persists the export
// record, and emits EXPORT_CREATED.
func (p *Pipeline) CreateExport(ctx context.Context, targets []Target, user string, pol *policy.Policy) (repository.Export, error) {
	batches, err := resolve(p.store, targets)
	if err != nil {
		return repository.Export{}, err
	}

	if policy.ShouldFilterPII(pol) {
		redactBatches(batches, pol.PII.Patterns)
	}

	createdAt := time.Now().UTC()
	bundleDir := fmt.Sprintf("export-%d", createdAt.UnixNano())

	artifacts := make([]Artifact, 0, len(targets))
	contentDigest := sha256.New()
	for i, t := range targets {
		buf, err := canonicalBytes(batches[i])
		if err != nil {
			return repository.Export{}, err
		}
		relPath := filepath.Join(bundleDir, t.Group+".jsonl")
		if err := p.writeArtifact(relPath, buf); err != nil {
			return repository.Export{}, err
		}
		contentDigest.Write(buf)
		artifacts = append(artifacts, Artifact{
			Path:   relPath,
			SHA256: hashArtifact(buf),
			Size:   int64(len(buf)),
		})
	}

	exportID := ids.ExportID(createdAt.Format(time.RFC3339Nano), contentDigest.Sum(nil))

	manifest := Manifest{
		ExportID:      exportID,
		CreatedAt:     createdAt.Format(time.RFC3339Nano),
		CorpusID:      p.corpus,
		Selectors:     targets,
		Artifacts:     artifacts,
		PolicyVersion: pol.Version,
	}
	signature, err := signManifest(p.key, manifest)
	if err != nil {
		return repository.Export{}, err
	}

	manifestMap, err := manifestToMap(manifest)
	if err != nil {
		return repository.Export{}, err
	}

	repoArtifacts := make([]repository.ExportArtifact, len(artifacts))
	for i, a := range artifacts {
		repoArtifacts[i] = repository.ExportArtifact{Path: a.Path, SHA256: a.SHA256, Size: a.Size}
	}
	groups := make([]string, len(targets))
	for i, t := range targets {
		groups[i] = t.Group
	}

	entity, err := p.repo.Create(exportID, groups, repoArtifacts, manifestMap, signature)
	if err != nil {
		return repository.Export{}, err
	}

	_, _ = p.audit.Record(audit.ExportCreated, user, exportID, "success", manifestMap)
	return entity, nil
}

// Verify re-hashes every artifact on disk, compares it against the
// manifest's recorded digest, and re-verifies the manifest signature. It
// never trusts the persisted signature without recomputing it.
func (p *Pipeline) Verify(ctx context.Context, exportID, user string) (VerifyReport, error) {
	entity, err := p.repo.Get(exportID)
	if err != nil {
		return VerifyReport{}, err
	}

	manifest, err := mapToManifest(entity.Manifest)
	if err != nil {
		return VerifyReport{}, err
	}

	report := VerifyReport{ExportID: exportID}
	for _, a := range manifest.Artifacts {
		data, err := os.ReadFile(filepath.Join(p.dir, a.Path))
		if err != nil {
			report.Mismatches = append(report.Mismatches, fmt.Sprintf("%s: %v", a.Path, err))
			continue
		}
		if hashArtifact(data) != a.SHA256 {
			report.Mismatches = append(report.Mismatches, fmt.Sprintf("%s: sha256 mismatch", a.Path))
		}
	}

	ok, err := verifyManifestSignature(p.key, manifest, entity.Signature)
	if err != nil {
		return VerifyReport{}, err
	}
	report.SignatureOK = ok
	report.OK = ok && len(report.Mismatches) == 0

	result := "success"
	if !report.OK {
		result = "failure"
	}
	_, _ = p.audit.Record(audit.ExportVerified, user, exportID, result, report)
	return report, nil
}

// Get returns the export record for exportID, including soft-deleted
// exports (the caller decides what to do with entity.DeletedAt).
func (p *Pipeline) Get(exportID string) (repository.Export, error) {
	return p.repo.Get(exportID)
}

// Delete soft-deletes the export record, leaving its artifacts on disk —
// the manifest and signature remain available for later audit or dispute,
// only the export is marked no longer current.
func (p *Pipeline) Delete(ctx context.Context, exportID, user string) error {
	entity, err := p.repo.Get(exportID)
	if err != nil {
		return err
	}
	if _, err := p.repo.MarkDeleted(entity); err != nil {
		return err
	}
	_, _ = p.audit.Record(audit.ExportDeleted, user, exportID, "success", nil)
	return nil
}

func (p *Pipeline) writeArtifact(relPath string, data []byte) error {
	full := filepath.Join(p.dir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("export: mkdir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("export: write artifact: %w", err)
	}
	return nil
}

// redactBatches rewrites every known text field in place across all
// batches, using the policy's configured PII pattern families.
func redactBatches(batches [][]map[string]interface{}, families []string) {
	for _, batch := range batches {
		for _, rec := range batch {
			for _, field := range textFields {
				v, ok := rec[field]
				if !ok {
					continue
				}
				s, ok := v.(string)
				if !ok {
					continue
				}
				rec[field] = RedactText(s, families)
			}
		}
	}
}
