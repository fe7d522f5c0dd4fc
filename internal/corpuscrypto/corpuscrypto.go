// Package corpuscrypto provides the cryptographic primitives the corpus
// engine needs: HKDF key derivation (DeriveKey) and HMAC signing for export
// manifests and audit digests. The corpus owner identity is not derived
// here; corpusstore computes it as a plain SHA-256 of credential and salt.
package corpuscrypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey derives a key using HKDF-SHA256.
//
// Derivation depends only on:
//   - masterKey: the deployment's root secret (config-provided, stable)
//   - salt: the owner identifier the key is scoped to (e.g. an owner_id)
//   - info: a stable context string identifying the purpose of the key
//
// so a given (masterKey, salt, info) triple always yields the same key,
// which is what lets an ownership check run without storing per-owner
// secrets anywhere.
func DeriveKey(masterKey, salt []byte, info string, keyLen int) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, masterKey, salt, []byte(info))
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// GenerateRandomBytes returns n cryptographically secure random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// HMACSign produces an HMAC-SHA256 signature over data.
func HMACSign(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// HMACVerify reports whether signature is the valid HMAC-SHA256 of data
// under key, using a constant-time comparison.
func HMACVerify(key, data, signature []byte) bool {
	expected := HMACSign(key, data)
	return hmac.Equal(signature, expected)
}

// Hash256 computes the SHA-256 digest of data, used for content hashes and
// hash-chain links.
func Hash256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
