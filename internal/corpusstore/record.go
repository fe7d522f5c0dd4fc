package corpusstore

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/clinicore/corpusengine/internal/corpuscrypto"
)

// SchemaVersion is the corpus file format version written by init and
// checked on every open.
const SchemaVersion = "corpus/v1"

// genesisHash is the all-zero SHA-256 hex digest (64 hex chars) used as the
// prevHash of the very first record in a corpus file's hash chain.
var genesisHash = strings.Repeat("0", 64)

// MetaGroup holds the single init record (owner identity, schema version).
// AuditGroup holds audit events. An audit event is written by its own
// Append call after the data record that triggered it, not inside the same
// critical section, so another append can land between the two.
const (
	MetaGroup  = "_meta"
	AuditGroup = "audit_events"
)

// record is the on-disk wire format for one line of the corpus file. Every
// append — data or audit — is one record, chained to the previous record
// in the file regardless of group, so the whole file forms a single
// tamper-evident sequence.
type record struct {
	Seq       int64           `json:"seq"`
	Group     string          `json:"group"`
	RecordID  string          `json:"record_id"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prev_hash"`
	EventHash string          `json:"event_hash"`
}

// recordContent is the hashed subset of record fields; it deliberately
// excludes EventHash itself.
type recordContent struct {
	Seq       int64           `json:"seq"`
	Group     string          `json:"group"`
	RecordID  string          `json:"record_id"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prev_hash"`
}

func hashRecordContent(c recordContent) string {
	raw, err := json.Marshal(c)
	if err != nil {
		panic("corpusstore: marshal record content: " + err.Error())
	}
	return hex.EncodeToString(corpuscrypto.Hash256(raw))
}

// Record is the public, read-path representation of an appended entry.
type Record struct {
	Seq       int64
	Group     string
	RecordID  string
	Timestamp time.Time
	Payload   json.RawMessage
}
