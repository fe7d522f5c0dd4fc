// Package audit implements C5: an append-only event log recorded in the
// corpus store's own audit_events group. Every service-level write is
// expected to call Record immediately after (success) or instead of
// (denial) its data append, in the same way an @audit decorator wraps a
// method in other stacks — here it's an explicit call at the end of each
// service method, since Go has no decorators.
package audit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinicore/corpusengine/internal/corpuscrypto"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/ids"
)

// Event is one row of the audit log. PayloadDigest is the SHA-256 of the
// canonical JSON of the triggering operation's payload — never the raw
// payload, so the audit log cannot itself become a second copy of
// sensitive clinical content.
type Event struct {
	EventID       string    `json:"event_id"`
	Operation     Operation `json:"operation"`
	User          string    `json:"user"`
	Resource      string    `json:"resource"`
	Result        string    `json:"result"`
	PayloadDigest string    `json:"payload_digest"`
	Timestamp     time.Time `json:"timestamp"`
}

// Log wraps a corpus store's audit_events group.
type Log struct {
	store *corpusstore.Store
}

// NewLog builds a Log bound to store.
func NewLog(store *corpusstore.Store) *Log {
	return &Log{store: store}
}

// Record appends a new audit event. payload is marshaled to canonical JSON
// and digested; it is never retained in full. Record fails only if op is
// not in the closed catalog or the underlying append fails.
func (l *Log) Record(op Operation, user, resource, result string, payload interface{}) (Event, error) {
	if !op.Valid() {
		return Event{}, fmt.Errorf("audit: %q is not a known operation", op)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("audit: marshal payload: %w", err)
	}
	digest := hex.EncodeToString(corpuscrypto.Hash256(raw))

	id := ids.RecordID(l.store.CorpusID(), corpusstore.AuditGroup, corpuscrypto.Hash256([]byte(string(op)+user+resource+digest)))
	event := Event{
		EventID:       id,
		Operation:     op,
		User:          user,
		Resource:      resource,
		Result:        result,
		PayloadDigest: digest,
		Timestamp:     time.Now().UTC(),
	}

	encoded, err := json.Marshal(event)
	if err != nil {
		return Event{}, fmt.Errorf("audit: marshal event: %w", err)
	}
	if _, err := l.store.Append(corpusstore.AuditGroup, id, encoded); err != nil {
		return Event{}, fmt.Errorf("audit: append: %w", err)
	}
	return event, nil
}

// List returns every recorded event within sel, in append order.
func (l *Log) List(sel corpusstore.Selector) ([]Event, error) {
	recs, err := l.store.Read(corpusstore.AuditGroup, sel)
	if err != nil {
		return nil, fmt.Errorf("audit: read: %w", err)
	}
	out := make([]Event, 0, len(recs))
	for _, r := range recs {
		var e Event
		if err := json.Unmarshal(r.Payload, &e); err != nil {
			return nil, fmt.Errorf("audit: decode event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
