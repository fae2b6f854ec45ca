// Package llm talks to hosted language models and turns their answers into review data.
package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/fumiya-kume/cra/pkg/config"
)

// Provider identifies an LLM vendor
type Provider string

const (
	ProviderAnthropic Provider = config.ProviderAnthropic
	ProviderOpenAI    Provider = config.ProviderOpenAI
)

// Client is a single LLM provider
type Client interface {
	Provider() Provider
	// IsAvailable reports whether the client has credentials
	IsAvailable() bool
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single prompt/response exchange
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// CompletionResponse is the text answer plus accounting
type CompletionResponse struct {
	Content    string
	StopReason string
	RequestID  string
	Usage      Usage
	Latency    time.Duration
}

// Usage counts tokens for one completion
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ClientConfig is shared by the provider clients
type ClientConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	// BaseURL replaces the vendor endpoint, for proxies and tests
	BaseURL string
}

// ClientConfigFrom converts the llm configuration section
func ClientConfigFrom(cfg config.LLMConfig) ClientConfig {
	return ClientConfig{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
		BaseURL:     cfg.BaseURL,
	}
}

// NewClient builds the client for the configured provider. The result may be
// unavailable when no key is configured; callers then fall back to mock reviews.
func NewClient(cfg config.LLMConfig) Client {
	cc := ClientConfigFrom(cfg)
	if Provider(cfg.Provider) == ProviderOpenAI {
		return NewOpenAIClient(cfg.OpenAIAPIKey, cc)
	}
	return NewAnthropicClient(cfg.AnthropicAPIKey, cc)
}

func newHTTPClient(cfg ClientConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (cfg ClientConfig) maxTokens(req *CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 4096
}

func (cfg ClientConfig) temperature(req *CompletionRequest) float64 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return cfg.Temperature
}
