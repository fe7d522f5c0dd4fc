package audit

import (
	"testing"

	"github.com/clinicore/corpusengine/internal/corpusstore"
)

func TestFilterByOperation(t *testing.T) {
	log := newTestLog(t)
	if _, err := log.Record(SessionCreated, "u1", "sess_1", "success", nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := log.Record(JobFailed, "u1", "job_1", "failure", nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	events, err := log.List(corpusstore.Selector{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	filtered, err := Filter(events, ByOperation(JobFailed))
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Operation != JobFailed {
		t.Fatalf("expected only the JOB_FAILED event, got %+v", filtered)
	}
}

func TestFilterEmptyExpressionReturnsAll(t *testing.T) {
	log := newTestLog(t)
	if _, err := log.Record(SessionCreated, "u1", "sess_1", "success", nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	events, err := log.List(corpusstore.Selector{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	filtered, err := Filter(events, "")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(filtered) != len(events) {
		t.Fatalf("expected empty expression to pass through all events")
	}
}
