package repository

import (
	"path/filepath"
	"testing"

	"github.com/clinicore/corpusengine/internal/corpusstore"
)

func newTestStore(t *testing.T) *corpusstore.Store {
	t.Helper()
	dir := t.TempDir()
	cfg := corpusstore.DefaultConfig(filepath.Join(dir, "corpus.ndjson"))
	s, err := corpusstore.Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
