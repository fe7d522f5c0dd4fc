package llmrouter

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// embeddingKey identifies a cached embedding by (model, sha256(text)), so
// repeated embeddings of the same text under the same model short-circuit
// the provider call entirely.
type embeddingKey struct {
	model string
	text  string
}

func newEmbeddingKey(model, text string) embeddingKey {
	sum := sha256.Sum256([]byte(text))
	return embeddingKey{model: model, text: hex.EncodeToString(sum[:])}
}

// EmbeddingCache is a bounded LRU over (model, sha256(text)) -> vector.
type EmbeddingCache struct {
	cache *lru.Cache[embeddingKey, []float32]
}

// NewEmbeddingCache builds an EmbeddingCache holding at most size entries.
func NewEmbeddingCache(size int) (*EmbeddingCache, error) {
	if size <= 0 {
		size = 4096
	}
	c, err := lru.New[embeddingKey, []float32](size)
	if err != nil {
		return nil, err
	}
	return &EmbeddingCache{cache: c}, nil
}

// Get returns the cached embedding for (model, text), if present.
func (c *EmbeddingCache) Get(model, text string) ([]float32, bool) {
	return c.cache.Get(newEmbeddingKey(model, text))
}

// Put stores vector for (model, text).
func (c *EmbeddingCache) Put(model, text string, vector []float32) {
	c.cache.Add(newEmbeddingKey(model, text), vector)
}

// Len reports the number of cached entries.
func (c *EmbeddingCache) Len() int { return c.cache.Len() }
