package repository

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// EncodeValue prepares a metadata-shaped field for storage: primitives
// pass through unchanged, and anything else (map, slice, nil) is
// JSON-encoded. Pairing this with DecodeValue is what keeps a nested
// mapping from turning into a literal string after a write/read cycle.
func EncodeValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return val, nil
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

// DecodeValue auto-detects whether s is JSON (leading '{', '[', or the
// literal "null") and, if so, decodes it back into its structured form.
// Malformed JSON falls back to the raw string rather than erroring — the
// read path never fails because of what a prior write stored.
func DecodeValue(s string) interface{} {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	looksJSON := trimmed[0] == '{' || trimmed[0] == '[' || trimmed == "null"
	if !looksJSON || !gjson.Valid(trimmed) {
		return s
	}
	var v interface{}
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return s
	}
	return v
}
