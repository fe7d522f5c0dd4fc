package audit

import "testing"

func TestSweepGroupsOldEventsByMonth(t *testing.T) {
	log := newTestLog(t)
	if _, err := log.Record(SessionCreated, "u1", "sess_1", "success", nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := log.Record(JobFailed, "u1", "job_1", "failure", nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	// retentionDays=0 normalizes to 90; use a negative-equivalent window by
	// requesting retention of -1 day via a manual Sweeper with 0 retention
	// is not representative of "everything is old" so exercise the digest
	// math directly instead of waiting out the default 90-day window.
	sweeper := NewSweeper(log, 90, []byte("signing-key"))
	sweeper.retentionDays = 0 // force every event to count as "older than cutoff"

	digests, err := sweeper.Sweep()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(digests) != 1 {
		t.Fatalf("expected 1 month of digests, got %d", len(digests))
	}
	if digests[0].EventCount != 2 {
		t.Fatalf("expected 2 events folded into the digest, got %d", digests[0].EventCount)
	}
}

func TestVerifyDigestDetectsTampering(t *testing.T) {
	log := newTestLog(t)
	if _, err := log.Record(SessionCreated, "u1", "sess_1", "success", nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	sweeper := NewSweeper(log, 0, []byte("signing-key"))
	sweeper.retentionDays = 0 // NewSweeper normalizes 0 to 90; force every event to count as aged
	digests, err := sweeper.Sweep()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(digests) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(digests))
	}

	ok, err := sweeper.VerifyDigest(digests[0])
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected an untampered digest to verify")
	}

	tampered := digests[0]
	tampered.AggregateID = "0000000000000000000000000000000000000000000000000000000000000000"
	ok, err = sweeper.VerifyDigest(tampered)
	if err != nil {
		t.Fatalf("verify tampered: %v", err)
	}
	if ok {
		t.Fatalf("expected a tampered digest to fail verification")
	}
}
