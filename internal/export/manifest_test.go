package export

import "testing"

func TestCanonicalBytesIsStableAcrossKeyOrder(t *testing.T) {
	a := []map[string]interface{}{{"b": 1, "a": 2}}
	b := []map[string]interface{}{{"a": 2, "b": 1}}

	bufA, err := canonicalBytes(a)
	if err != nil {
		t.Fatalf("canonicalBytes a: %v", err)
	}
	bufB, err := canonicalBytes(b)
	if err != nil {
		t.Fatalf("canonicalBytes b: %v", err)
	}
	if string(bufA) != string(bufB) {
		t.Fatalf("expected identical bytes regardless of source map key order, got %q vs %q", bufA, bufB)
	}
}

func TestCanonicalBytesEndsWithLF(t *testing.T) {
	buf, err := canonicalBytes([]map[string]interface{}{{"x": 1}})
	if err != nil {
		t.Fatalf("canonicalBytes: %v", err)
	}
	if buf[len(buf)-1] != '\n' {
		t.Fatalf("expected trailing LF, got %q", buf)
	}
}

func TestSignManifestRoundTrips(t *testing.T) {
	key := []byte("signing-key")
	m := Manifest{
		ExportID:      "exp_1",
		CreatedAt:     "2026-07-29T00:00:00Z",
		CorpusID:      "cps_1",
		Selectors:     []Target{{Group: "interactions"}},
		Artifacts:     []Artifact{{Path: "interactions.jsonl", SHA256: "abc", Size: 3}},
		PolicyVersion: "v1",
	}

	sig, err := signManifest(key, m)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := verifyManifestSignature(key, m, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifyManifestSignatureRejectsTamperedManifest(t *testing.T) {
	key := []byte("signing-key")
	m := Manifest{ExportID: "exp_1", CorpusID: "cps_1"}
	sig, err := signManifest(key, m)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tampered := m
	tampered.CorpusID = "cps_evil"
	ok, err := verifyManifestSignature(key, tampered, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatalf("expected a tampered manifest to fail signature verification")
	}
}

func TestManifestMapRoundTrip(t *testing.T) {
	m := Manifest{
		ExportID:      "exp_1",
		CreatedAt:     "2026-07-29T00:00:00Z",
		CorpusID:      "cps_1",
		Selectors:     []Target{{Group: "interactions", Expr: `$[?(@.session_id=="s1")]`}},
		Artifacts:     []Artifact{{Path: "interactions.jsonl", SHA256: "abc", Size: 3}},
		PolicyVersion: "v1",
	}
	asMap, err := manifestToMap(m)
	if err != nil {
		t.Fatalf("manifestToMap: %v", err)
	}
	back, err := mapToManifest(asMap)
	if err != nil {
		t.Fatalf("mapToManifest: %v", err)
	}
	if back.ExportID != m.ExportID || back.CorpusID != m.CorpusID || len(back.Artifacts) != 1 {
		t.Fatalf("expected manifest to round-trip through map, got %+v", back)
	}
}
