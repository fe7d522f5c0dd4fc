package corpusstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func tempConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return DefaultConfig(filepath.Join(dir, "corpus.ndjson"))
}

func TestInitThenOpenRoundTrips(t *testing.T) {
	cfg := tempConfig(t)

	s, err := Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if s.CorpusID() != "cps_test1" {
		t.Fatalf("expected corpus id cps_test1, got %s", s.CorpusID())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reopened.Close()

	if reopened.CorpusID() != "cps_test1" {
		t.Fatalf("expected corpus id to survive reopen, got %s", reopened.CorpusID())
	}
	if !reopened.VerifyOwnership("owner-cred", "salt-1") {
		t.Fatalf("expected ownership to verify after reopen")
	}
}

func TestInitTwiceFails(t *testing.T) {
	cfg := tempConfig(t)

	s, err := Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	s.Close()

	if _, err := Init(cfg, "cps_test1", "owner-cred", "salt-1"); err != ErrAlreadyInitialized {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestAppendAndRead(t *testing.T) {
	cfg := tempConfig(t)
	s, err := Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		payload, _ := json.Marshal(map[string]any{"n": i})
		if _, err := s.Append(GroupInteractions, "int_"+string(rune('a'+i)), payload); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	recs, err := s.Read(GroupInteractions, Selector{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if s.GroupLength(GroupInteractions) != 3 {
		t.Fatalf("expected group length 3, got %d", s.GroupLength(GroupInteractions))
	}
}

func TestReadSelectorWindow(t *testing.T) {
	cfg := tempConfig(t)
	s, err := Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		payload, _ := json.Marshal(map[string]any{"n": i})
		if _, err := s.Append(GroupJobs, "job_n", payload); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	recs, err := s.Read(GroupJobs, Selector{Offset: 2, Limit: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records in window, got %d", len(recs))
	}
}

func TestAppendUnknownGroupRejected(t *testing.T) {
	cfg := tempConfig(t)
	s, err := Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer s.Close()

	if _, err := s.Append("not_a_group", "x", json.RawMessage("{}")); err == nil {
		t.Fatalf("expected error for unknown group")
	}
}

func TestVerifyOwnershipRejectsWrongCredential(t *testing.T) {
	cfg := tempConfig(t)
	s, err := Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer s.Close()

	if s.VerifyOwnership("wrong-cred", "salt-1") {
		t.Fatalf("expected ownership verification to fail for wrong credential")
	}
}

func TestValidateDetectsMutation(t *testing.T) {
	cfg := tempConfig(t)
	s, err := Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{"n": 1})
	if _, err := s.Append(GroupInteractions, "int_a", payload); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	// Simulate an external truncation of the corpus file behind the
	// store's back: drop the last line entirely.
	data, err := os.ReadFile(cfg.CorpusPath)
	if err != nil {
		t.Fatalf("read corpus: %v", err)
	}
	lines := splitLines(data)
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 lines (meta + interaction), got %d", len(lines))
	}
	truncated := joinLines(lines[:len(lines)-1])
	if err := os.WriteFile(cfg.CorpusPath, truncated, 0o600); err != nil {
		t.Fatalf("write truncated corpus: %v", err)
	}

	_, err = Open(cfg)
	if err == nil {
		t.Fatalf("expected open to detect the truncated group and fail")
	}
}

func TestValidateReportsOKForHealthyStore(t *testing.T) {
	cfg := tempConfig(t)
	s, err := Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer s.Close()

	payload, _ := json.Marshal(map[string]any{"n": 1})
	if _, err := s.Append(GroupInteractions, "int_a", payload); err != nil {
		t.Fatalf("append: %v", err)
	}

	report, err := s.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !report.OK {
		t.Fatalf("expected report.OK=true, got problems %v", report.Problems)
	}
	if report.GroupLengths[GroupInteractions] != 1 {
		t.Fatalf("expected interactions length 1, got %d", report.GroupLengths[GroupInteractions])
	}
}

func TestOpenSalvagesIncompleteTail(t *testing.T) {
	cfg := tempConfig(t)
	s, err := Init(cfg, "cps_test1", "owner-cred", "salt-1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	payload, _ := json.Marshal(map[string]any{"n": 1})
	if _, err := s.Append(GroupInteractions, "int_a", payload); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	// Simulate a crash mid-write: append a truncated JSON fragment with no
	// closing brace or trailing newline, as os.Write might leave behind if
	// the process died mid-syscall.
	f, err := os.OpenFile(cfg.CorpusPath, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open for corruption: %v", err)
	}
	if _, err := f.Write([]byte(`{"seq":2,"group":"interactions","record_id":"int_b","ts":"2026-0`)); err != nil {
		t.Fatalf("write corruption: %v", err)
	}
	f.Close()

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("expected open to salvage and succeed, got %v", err)
	}
	defer reopened.Close()

	if reopened.GroupLength(GroupInteractions) != 1 {
		t.Fatalf("expected salvage to drop the incomplete record, got length %d", reopened.GroupLength(GroupInteractions))
	}

	matches, _ := filepath.Glob(cfg.CorpusPath + ".salvage-*")
	if len(matches) != 1 {
		t.Fatalf("expected exactly one salvage file, got %v", matches)
	}
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i+1])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

func joinLines(lines [][]byte) []byte {
	var out []byte
	for _, l := range lines {
		out = append(out, l...)
	}
	return out
}
