// Package llmrouter is the single choke point for every model call the
// corpus engine makes. No other package may import a provider SDK or call
// a provider's HTTP API directly — cmd/router-checker enforces that.
package llmrouter

import "context"

// Kind distinguishes a completion call from an embedding call — only
// embedding calls consult the embedding cache.
type Kind string

const (
	KindCompletion Kind = "completion"
	KindEmbedding  Kind = "embedding"
)

// Request is one completion or embedding call routed to a provider.
type Request struct {
	Kind   Kind
	Model  string
	Prompt string
	UserID string
}

// Response carries a provider's output back through the router.
type Response struct {
	Model string
	Text  string
	// Embedding is populated instead of Text when Request targets an
	// embedding-capable model.
	Embedding []float32
}

// Provider is one upstream model backend (claude, ollama, a future
// openai). Each provider package lives under llmrouter/providers and
// registers itself from an init() func, the same registration idiom as
// the teacher's chain.RegisterServiceChain.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// Factory builds a Provider from its configuration.
type Factory func(cfg map[string]string) (Provider, error)
