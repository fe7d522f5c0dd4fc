// Package ollama implements an llmrouter.Provider for a local Ollama
// server's HTTP API (both /api/generate and /api/embeddings), using
// stdlib net/http for the same reason as the claude provider — see
// DESIGN.md.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clinicore/corpusengine/internal/llmrouter"
)

func init() {
	llmrouter.Register("ollama", func(cfg map[string]string) (llmrouter.Provider, error) {
		return New(Config{
			Model:   cfg["model"],
			BaseURL: cfg["base_url"],
		})
	})
}

// Config configures the Provider.
type Config struct {
	Model   string
	BaseURL string
}

// Provider calls a local Ollama server.
type Provider struct {
	model   string
	baseURL string
	client  *http.Client
}

// New builds a Provider.
func New(cfg Config) (*Provider, error) {
	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Provider{model: model, baseURL: baseURL, client: &http.Client{Timeout: 120 * time.Second}}, nil
}

func (p *Provider) Name() string { return "ollama" }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type embeddingsRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingsResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Complete dispatches to /api/generate or /api/embeddings based on
// req.Kind.
func (p *Provider) Complete(ctx context.Context, req llmrouter.Request) (llmrouter.Response, error) {
	if req.Kind == llmrouter.KindEmbedding {
		return p.embed(ctx, req)
	}
	return p.generate(ctx, req)
}

func (p *Provider) generate(ctx context.Context, req llmrouter.Request) (llmrouter.Response, error) {
	body, err := json.Marshal(generateRequest{Model: p.model, Prompt: req.Prompt, Stream: false})
	if err != nil {
		return llmrouter.Response{}, fmt.Errorf("ollama: marshal request: %w", err)
	}
	payload, err := p.post(ctx, "/api/generate", body)
	if err != nil {
		return llmrouter.Response{}, err
	}
	var parsed generateResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return llmrouter.Response{}, fmt.Errorf("ollama: parse response: %w", err)
	}
	return llmrouter.Response{Model: p.model, Text: parsed.Response}, nil
}

func (p *Provider) embed(ctx context.Context, req llmrouter.Request) (llmrouter.Response, error) {
	body, err := json.Marshal(embeddingsRequest{Model: p.model, Prompt: req.Prompt})
	if err != nil {
		return llmrouter.Response{}, fmt.Errorf("ollama: marshal request: %w", err)
	}
	payload, err := p.post(ctx, "/api/embeddings", body)
	if err != nil {
		return llmrouter.Response{}, err
	}
	var parsed embeddingsResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return llmrouter.Response{}, fmt.Errorf("ollama: parse response: %w", err)
	}
	return llmrouter.Response{Model: p.model, Embedding: parsed.Embedding}, nil
}

func (p *Provider) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &llmrouter.HTTPStatusError{StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
