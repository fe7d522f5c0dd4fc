package service

import (
	"context"

	"github.com/clinicore/corpusengine/internal/export"
	"github.com/clinicore/corpusengine/internal/policy"
	"github.com/clinicore/corpusengine/internal/repository"
)

// ExportService is a thin transport-facing wrapper over export.Pipeline:
// it resolves the active policy and delegates, keeping the pipeline's
// own package free of a policy.Current() dependency so it can be tested
// with an explicit *policy.Policy.
type ExportService struct {
	BaseService
	pipeline *export.Pipeline
}

// NewExportService builds an ExportService.
func NewExportService(base BaseConfig, pipeline *export.Pipeline) *ExportService {
	return &ExportService{BaseService: NewBaseService(base), pipeline: pipeline}
}

// Create resolves targets against the active policy and assembles a
// signed export bundle.
func (s *ExportService) Create(ctx context.Context, targets []export.Target, userID string) (repository.Export, error) {
	if len(targets) == 0 {
		return repository.Export{}, validationErr("targets", "must include at least one selector")
	}
	pol, err := policy.Current()
	if err != nil {
		return repository.Export{}, err
	}
	return s.pipeline.CreateExport(ctx, targets, userID, pol)
}

// Get returns an export's metadata record.
func (s *ExportService) Get(exportID string) (repository.Export, error) {
	return s.pipeline.Get(exportID)
}

// Verify re-checks an export's artifacts and signature.
func (s *ExportService) Verify(ctx context.Context, exportID, userID string) (export.VerifyReport, error) {
	return s.pipeline.Verify(ctx, exportID, userID)
}

// Delete soft-deletes an export record.
func (s *ExportService) Delete(ctx context.Context, exportID, userID string) error {
	return s.pipeline.Delete(ctx, exportID, userID)
}
