package ids

import "testing"

func TestCorpusIDDeterministic(t *testing.T) {
	a := CorpusID("owner-credential", "salt-1")
	b := CorpusID("owner-credential", "salt-1")
	if a != b {
		t.Fatalf("expected deterministic corpus id, got %s vs %s", a, b)
	}
	if c := CorpusID("owner-credential", "salt-2"); c == a {
		t.Fatalf("expected different salt to produce different id")
	}
}

func TestExportIDDeterministic(t *testing.T) {
	digest := []byte("content-digest")
	a := ExportID("2026-07-29T00:00:00.000000000Z", digest)
	b := ExportID("2026-07-29T00:00:00.000000000Z", digest)
	if a != b {
		t.Fatalf("expected deterministic export id, got %s vs %s", a, b)
	}
	if c := ExportID("2026-07-29T00:00:00.000000001Z", digest); c == a {
		t.Fatalf("expected different timestamp to produce different id")
	}
}

func TestRecordIDScopedToCorpusAndGroup(t *testing.T) {
	digest := []byte("row-bytes")
	a := RecordID("cps_abc", "interaction", digest)
	b := RecordID("cps_abc", "embedding", digest)
	if a == b {
		t.Fatalf("expected different groups to produce different ids")
	}
	if got := RecordID("cps_abc", "interaction", digest); got != a {
		t.Fatalf("expected deterministic record id, got %s vs %s", got, a)
	}
}
