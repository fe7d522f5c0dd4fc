// Package claude implements an llmrouter.Provider for Anthropic's Messages
// API. No Anthropic SDK is vendored in this module, so the client is a
// thin stdlib net/http call — see DESIGN.md for why no third-party client
// library backs this package.
package claude

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
	llmrouter.Register("claude", func(cfg map[string]string) (llmrouter.Provider, error) {
		return New(Config{
			APIKey:  cfg["api_key"],
			Model:   cfg["model"],
			BaseURL: cfg["base_url"],
		})
	})
}

// Config configures the Provider.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Provider calls Anthropic's Messages API over HTTPS.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New builds a Provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude: api_key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &Provider{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (p *Provider) Name() string { return "claude" }

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends a single, non-retrying chat completion request.
func (p *Provider) Complete(ctx context.Context, req llmrouter.Request) (llmrouter.Response, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     p.model,
		MaxTokens: 1024,
		Messages:  []chatMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return llmrouter.Response{}, fmt.Errorf("claude: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return llmrouter.Response{}, fmt.Errorf("claude: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return llmrouter.Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llmrouter.Response{}, &llmrouter.HTTPStatusError{StatusCode: resp.StatusCode}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return llmrouter.Response{}, fmt.Errorf("claude: read response: %w", err)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return llmrouter.Response{}, fmt.Errorf("claude: parse response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return llmrouter.Response{}, fmt.Errorf("claude: empty response content")
	}
	return llmrouter.Response{Model: p.model, Text: parsed.Content[0].Text}, nil
}
