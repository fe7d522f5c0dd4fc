package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPolicyMatchesSpec(t *testing.T) {
	p := Default()
	if !p.AppendOnly || p.RetentionDays != 90 || !p.Ownership.Required {
		t.Fatalf("unexpected default policy: %+v", p)
	}
	if !p.PII.FilterOnExport || len(p.PII.Patterns) != 4 {
		t.Fatalf("unexpected default PII config: %+v", p.PII)
	}
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.RetentionDays != 90 {
		t.Fatalf("expected default retention, got %d", p.RetentionDays)
	}
}

func TestLoadOverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := "retention_days: 30\nownership:\n  required: false\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.RetentionDays != 30 {
		t.Fatalf("expected retention_days 30, got %d", p.RetentionDays)
	}
	if p.Ownership.Required {
		t.Fatalf("expected ownership.required false override to apply")
	}
}

func TestCurrentIsMemoizedUntilReset(t *testing.T) {
	Reset()
	defer Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte("retention_days: 15\n"), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}
	Configure(path)

	p1, err := Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if p1.RetentionDays != 15 {
		t.Fatalf("expected retention_days 15, got %d", p1.RetentionDays)
	}

	if err := os.WriteFile(path, []byte("retention_days: 45\n"), 0o600); err != nil {
		t.Fatalf("rewrite policy file: %v", err)
	}
	p2, err := Current()
	if err != nil {
		t.Fatalf("current (memoized): %v", err)
	}
	if p2.RetentionDays != 15 {
		t.Fatalf("expected Current to stay memoized at 15 until Reset, got %d", p2.RetentionDays)
	}

	Reset()
	p3, err := Current()
	if err != nil {
		t.Fatalf("current (after reset): %v", err)
	}
	if p3.RetentionDays != 45 {
		t.Fatalf("expected reload after Reset to pick up 45, got %d", p3.RetentionDays)
	}
}
