package repository

import "testing"

func TestInteractionCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	repo := NewInteractionRepository(store)

	created, err := repo.Create("sess_1", "hello", "hi there", "claude", 12, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.InteractionID == "" {
		t.Fatalf("expected a non-empty interaction id")
	}

	got, err := repo.Get(created.InteractionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Prompt != "hello" || got.Response != "hi there" {
		t.Fatalf("unexpected round-tripped interaction: %+v", got)
	}
}

func TestInteractionListBySession(t *testing.T) {
	store := newTestStore(t)
	repo := NewInteractionRepository(store)

	if _, err := repo.Create("sess_1", "a", "b", "claude", 1, nil); err != nil {
		t.Fatalf("create 1: %v", err)
	}
	if _, err := repo.Create("sess_1", "c", "d", "claude", 1, nil); err != nil {
		t.Fatalf("create 2: %v", err)
	}
	if _, err := repo.Create("sess_2", "e", "f", "claude", 1, nil); err != nil {
		t.Fatalf("create 3: %v", err)
	}

	list, err := repo.ListBySession("sess_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 interactions for sess_1, got %d", len(list))
	}
}

func TestInteractionGetUnknownReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	repo := NewInteractionRepository(store)

	if _, err := repo.Get("does_not_exist"); !IsNotFound(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
}
