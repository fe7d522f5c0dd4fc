package repository

import "testing"

func TestAudioCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	repo := NewAudioRepository(store)

	created, err := repo.Create("sess_1", "storage/audio/abc.wav", "deadbeef", "audio/wav", 15000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(created.ArtifactID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SHA256 != "deadbeef" || got.Mime != "audio/wav" {
		t.Fatalf("unexpected round-tripped artifact: %+v", got)
	}
}

func TestAudioListBySession(t *testing.T) {
	store := newTestStore(t)
	repo := NewAudioRepository(store)

	if _, err := repo.Create("sess_1", "storage/audio/a.wav", "hash-a", "audio/wav", 1000); err != nil {
		t.Fatalf("create 1: %v", err)
	}
	if _, err := repo.Create("sess_1", "storage/audio/b.wav", "hash-b", "audio/wav", 2000); err != nil {
		t.Fatalf("create 2: %v", err)
	}
	if _, err := repo.Create("sess_2", "storage/audio/c.wav", "hash-c", "audio/wav", 3000); err != nil {
		t.Fatalf("create 3: %v", err)
	}

	list, err := repo.ListBySession("sess_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 artifacts for sess_1, got %d", len(list))
	}
}
