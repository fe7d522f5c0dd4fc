package audit

import (
	"path/filepath"
	"testing"

	"github.com/clinicore/corpusengine/internal/corpusstore"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	dir := t.TempDir()
	cfg := corpusstore.DefaultConfig(filepath.Join(dir, "corpus.ndjson"))
	s, err := corpusstore.Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewLog(s)
}

func TestRecordRejectsUnknownOperation(t *testing.T) {
	log := newTestLog(t)
	if _, err := log.Record(Operation("NOT_IN_CATALOG"), "u1", "r1", "success", nil); err == nil {
		t.Fatalf("expected unknown operation to be rejected")
	}
}

func TestRecordAndListRoundTrip(t *testing.T) {
	log := newTestLog(t)

	evt, err := log.Record(SessionCreated, "u1", "sess_1", "success", map[string]string{"note": "hello"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if evt.PayloadDigest == "" {
		t.Fatalf("expected a non-empty payload digest")
	}

	events, err := log.List(corpusstore.Selector{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].Operation != SessionCreated {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestRecordNeverRetainsRawPayload(t *testing.T) {
	log := newTestLog(t)

	if _, err := log.Record(InteractionAppended, "u1", "int_1", "success", map[string]string{"prompt": "sensitive clinical text"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	events, err := log.List(corpusstore.Selector{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].PayloadDigest == "" {
		t.Fatalf("expected payload digest to be set")
	}
}
