package corpuscrypto

import "testing"

func TestDeriveKeyIsDeterministic(t *testing.T) {
	master := []byte("deployment-master-secret")
	salt := []byte("owner-123")

	k1, err := DeriveKey(master, salt, "ownership-identity", 32)
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	k2, err := DeriveKey(master, salt, "ownership-identity", 32)
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	if string(k1) != string(k2) {
		t.Fatalf("expected deterministic derivation for identical inputs")
	}

	k3, err := DeriveKey(master, []byte("owner-456"), "ownership-identity", 32)
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	if string(k1) == string(k3) {
		t.Fatalf("expected different salts to derive different keys")
	}
}

func TestHMACSignVerify(t *testing.T) {
	key := []byte("signing-key")
	data := []byte(`{"export_id":"exp_1"}`)

	sig := HMACSign(key, data)
	if !HMACVerify(key, data, sig) {
		t.Fatalf("expected signature to verify")
	}

	if HMACVerify([]byte("wrong-key"), data, sig) {
		t.Fatalf("expected verification to fail with wrong key")
	}
	if HMACVerify(key, []byte("tampered"), sig) {
		t.Fatalf("expected verification to fail for tampered data")
	}
}

func TestGenerateRandomBytesLength(t *testing.T) {
	b, err := GenerateRandomBytes(16)
	if err != nil {
		t.Fatalf("generate random bytes: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(b))
	}
}

func TestHash256Stable(t *testing.T) {
	h1 := Hash256([]byte("hello"))
	h2 := Hash256([]byte("hello"))
	if string(h1) != string(h2) {
		t.Fatalf("expected stable hash for identical input")
	}
	if len(h1) != 32 {
		t.Fatalf("expected 32-byte SHA-256 digest, got %d", len(h1))
	}
}
