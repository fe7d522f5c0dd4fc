package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/clinicore/corpusengine/internal/corpuscrypto"
)

// Artifact is one file within an export bundle.
type Artifact struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Manifest is the export's signed index: every artifact's hash, the
// selectors that produced it, and the policy version in force at export
// time. Field order here is the manifest's canonical field order.
type Manifest struct {
	ExportID      string     `json:"export_id"`
	CreatedAt     string     `json:"created_at"`
	CorpusID      string     `json:"corpus_id"`
	Selectors     []Target   `json:"selectors"`
	Artifacts     []Artifact `json:"artifacts"`
	PolicyVersion string     `json:"policy_version"`
}

// canonicalBytes serializes a record batch deterministically: stable key
// order (Go's encoding/json already sorts map[string]interface{} keys),
// UTF-8, LF line endings — never CRLF, regardless of host.
func canonicalBytes(records []map[string]interface{}) ([]byte, error) {
	canon := make([]map[string]interface{}, len(records))
	for i, r := range records {
		c, err := canonicalizeMap(r)
		if err != nil {
			return nil, err
		}
		canon[i] = c
	}
	buf, err := json.Marshal(canon)
	if err != nil {
		return nil, fmt.Errorf("export: marshal artifact: %w", err)
	}
	buf = bytes.ReplaceAll(buf, []byte("\r\n"), []byte("\n"))
	return append(buf, '\n'), nil
}

// canonicalizeMap round-trips r through JSON so every nested map is
// re-decoded into map[string]interface{}, forcing stdlib's sorted-key
// encoding even for values that started out as a typed struct with a
// fixed field order.
func canonicalizeMap(r map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// canonicalManifestBytes serializes m with the same LF-only guarantee as
// canonicalBytes, used as the signing input.
func canonicalManifestBytes(m Manifest) ([]byte, error) {
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("export: marshal manifest: %w", err)
	}
	buf = bytes.ReplaceAll(buf, []byte("\r\n"), []byte("\n"))
	return buf, nil
}

// manifestToMap round-trips m through JSON into the map[string]any shape
// repository.Export stores its manifest as.
func manifestToMap(m Manifest) (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("export: marshal manifest: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("export: decode manifest map: %w", err)
	}
	return out, nil
}

// mapToManifest is manifestToMap's inverse, used when re-verifying a
// persisted export record.
func mapToManifest(m map[string]any) (Manifest, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Manifest{}, fmt.Errorf("export: marshal manifest map: %w", err)
	}
	var out Manifest
	if err := json.Unmarshal(raw, &out); err != nil {
		return Manifest{}, fmt.Errorf("export: decode manifest: %w", err)
	}
	return out, nil
}

// hashArtifact returns the hex-encoded SHA-256 of an artifact's bytes.
func hashArtifact(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// signManifest HS256-signs the manifest's canonical bytes, base64url
// without padding, as §6 specifies.
func signManifest(key []byte, m Manifest) (string, error) {
	buf, err := canonicalManifestBytes(m)
	if err != nil {
		return "", err
	}
	sig := corpuscrypto.HMACSign(key, buf)
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// verifyManifestSignature recomputes the HMAC over m's canonical bytes
// and compares it to signature (base64url, no padding) in constant time.
func verifyManifestSignature(key []byte, m Manifest, signature string) (bool, error) {
	sig, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("export: decode signature: %w", err)
	}
	buf, err := canonicalManifestBytes(m)
	if err != nil {
		return false, err
	}
	return corpuscrypto.HMACVerify(key, buf, sig), nil
}
