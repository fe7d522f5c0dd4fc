package repository

import (
	"testing"

	"github.com/clinicore/corpusengine/internal/corpusstore"
)

func TestExportCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	repo := NewExportRepository(store)

	artifacts := []ExportArtifact{{Path: "manifest.json", SHA256: "abc", Size: 10}}
	created, err := repo.Create("exp_test1", []string{"filesystem"}, artifacts, map[string]any{"record_count": 1}, "sig-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ExportID != "exp_test1" {
		t.Fatalf("expected export id to round-trip, got %q", created.ExportID)
	}

	got, err := repo.Get(created.ExportID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Signature != "sig-1" || got.DeletedAt != nil {
		t.Fatalf("unexpected export: %+v", got)
	}
}

func TestExportMarkDeletedAppendsTombstone(t *testing.T) {
	store := newTestStore(t)
	repo := NewExportRepository(store)

	created, err := repo.Create("exp_test2", []string{"filesystem"}, nil, map[string]any{}, "sig-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := repo.MarkDeleted(created)
	if err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if deleted.DeletedAt == nil {
		t.Fatalf("expected deleted_at to be set")
	}

	got, err := repo.Get(created.ExportID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DeletedAt == nil {
		t.Fatalf("expected Get to return the latest (tombstoned) record")
	}
}

func TestExportListIncludesTombstones(t *testing.T) {
	store := newTestStore(t)
	repo := NewExportRepository(store)

	created, err := repo.Create("exp_test3", []string{"filesystem"}, nil, map[string]any{}, "sig-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.MarkDeleted(created); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}

	all, err := repo.List(corpusstore.Selector{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 export records (create + tombstone), got %d", len(all))
	}
}
