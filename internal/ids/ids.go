// Package ids generates the deterministic identifiers the corpus engine
// uses in place of database-assigned primary keys: a corpus_id derived
// from an owner credential and salt, and an export_id derived from a
// timestamp and a content digest. Both are base58-encoded SHA-256 digests,
// so they are stable, URL-safe, and collision-resistant without a
// sequence or a central allocator.
package ids

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// CorpusID derives a deterministic corpus identifier from an owner
// credential and a salt. The same (ownerCredential, salt) pair always
// yields the same ID, so a corpus can be located without a lookup table.
func CorpusID(ownerCredential, salt string) string {
	sum := sha256.Sum256([]byte(ownerCredential + "\x00" + salt))
	return "cps_" + base58.Encode(sum[:16])
}

// ExportID derives a deterministic export identifier from the export's
// creation time (RFC3339 nanosecond precision) and a digest of its
// contents. The same inputs always give the same ID; because the creation
// time is part of the input, re-running an export of unchanged content
// produces a new ID.
func ExportID(createdAtRFC3339Nano string, contentDigest []byte) string {
	sum := sha256.Sum256([]byte(createdAtRFC3339Nano + "\x00" + string(contentDigest)))
	return "exp_" + base58.Encode(sum[:16])
}

// RecordID derives a deterministic record identifier for an append-only
// entity (interaction, embedding, session, job, audit event) from its
// group name and content digest, scoped to a corpus.
func RecordID(corpusID, group string, contentDigest []byte) string {
	sum := sha256.Sum256([]byte(corpusID + "\x00" + group + "\x00" + string(contentDigest)))
	return fmt.Sprintf("%s_%s", group, base58.Encode(sum[:16]))
}
