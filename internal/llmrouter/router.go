package llmrouter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/pkg/redaction"
	"github.com/clinicore/corpusengine/pkg/resilience"
)

// Router is the single entry point for every model call: route(prompt,
// model, user_id, config) -> response. It resolves model -> provider via
// the registry, wraps the call in a per-provider circuit breaker, checks
// the embedding cache first for embedding requests, scrubs any error of
// credentials, and emits LLM_CALL_ROUTED/LLM_CALL_FAILED before returning
// in every case.
type Router struct {
	mu        sync.Mutex
	providers map[string]Provider
	breakers  map[string]*resilience.CircuitBreaker
	cache     *EmbeddingCache
	audit     *audit.Log
	redactor  *redaction.Redactor
}

// New builds a Router. providerConfigs maps a model name to the
// configuration passed to its registered provider factory.
func New(log *audit.Log, cacheSize int, providerConfigs map[string]map[string]string) (*Router, error) {
	cache, err := NewEmbeddingCache(cacheSize)
	if err != nil {
		return nil, err
	}

	r := &Router{
		providers: make(map[string]Provider),
		breakers:  make(map[string]*resilience.CircuitBreaker),
		cache:     cache,
		audit:     log,
		redactor:  redaction.NewRedactor(redaction.DefaultConfig()),
	}

	for model, cfg := range providerConfigs {
		provider, err := Build(model, cfg)
		if err != nil {
			return nil, fmt.Errorf("llmrouter: build provider %q: %w", model, err)
		}
		r.providers[model] = provider
		r.breakers[model] = resilience.New(resilience.DefaultConfig())
	}
	return r, nil
}

// Route is the router's single choke point.
func (r *Router) Route(ctx context.Context, req Request) (Response, error) {
	if req.Kind == KindEmbedding {
		if vec, ok := r.cache.Get(req.Model, req.Prompt); ok {
			r.emit(req, "success", nil)
			return Response{Model: req.Model, Embedding: vec}, nil
		}
	}

	r.mu.Lock()
	provider, ok := r.providers[req.Model]
	breaker := r.breakers[req.Model]
	r.mu.Unlock()
	if !ok {
		err := fmt.Errorf("%w: %s", ErrProviderUnavailable, req.Model)
		r.emit(req, "failure", err)
		return Response{}, err
	}

	var resp Response
	callErr := breaker.Execute(ctx, func() error {
		var err error
		resp, err = provider.Complete(ctx, req)
		return err
	})

	if callErr != nil {
		normalized := Normalize(callErr)
		r.emit(req, "failure", normalized)
		return Response{}, normalized
	}

	if req.Kind == KindEmbedding {
		r.cache.Put(req.Model, req.Prompt, resp.Embedding)
	}
	r.emit(req, "success", nil)
	return resp, nil
}

// emit always records an audit event before Route returns, satisfying the
// invariant that every LLM call has a matching LLM_CALL_ROUTED or
// LLM_CALL_FAILED event.
func (r *Router) emit(req Request, result string, callErr error) {
	if r.audit == nil {
		return
	}
	resource := promptDigest(req.Prompt)
	if callErr != nil {
		_, _ = r.audit.Record(audit.LLMCallFailed, req.UserID, resource, result, map[string]string{
			"model": req.Model,
			"error": r.redactor.RedactString(callErr.Error()),
		})
		return
	}
	_, _ = r.audit.Record(audit.LLMCallRouted, req.UserID, resource, result, map[string]string{
		"model": req.Model,
		"kind":  string(req.Kind),
	})
}

func promptDigest(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
