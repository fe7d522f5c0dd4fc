package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSONSetsOKEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/sessions", nil)

	WriteJSON(w, r, http.StatusCreated, map[string]string{"session_id": "sess_1"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}
}

func TestWriteErrorSetsTaxonomyStatus(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/sessions", nil)

	WriteError(w, r, http.StatusBadRequest, "ValidationError", "user_id: must not be empty", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestPaginationParamsClampsToMax(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/audit?offset=5&limit=500", nil)
	offset, limit := PaginationParams(r, 20, 100)
	if offset != 5 {
		t.Fatalf("expected offset 5, got %d", offset)
	}
	if limit != 100 {
		t.Fatalf("expected limit clamped to 100, got %d", limit)
	}
}

func TestPaginationParamsDefaultsWhenAbsent(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/audit", nil)
	offset, limit := PaginationParams(r, 20, 100)
	if offset != 0 || limit != 20 {
		t.Fatalf("expected defaults (0, 20), got (%d, %d)", offset, limit)
	}
}

func TestOwnershipVerifiedReadsHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	if OwnershipVerified(r) {
		t.Fatalf("expected false when header absent")
	}
	r.Header.Set("X-Ownership-Verified", "true")
	if !OwnershipVerified(r) {
		t.Fatalf("expected true when header set")
	}
}
