// Package agent provides provider client construction with the
// middleware chain used throughout the pipeline: metrics recording
// outermost, optional rate limiting, classified retries beneath, raw
// provider client at the core. Provider selection is capability-based:
// any client satisfying llm.Client is interchangeable.
package agent

import (
	"fmt"

	"appforge/pkg/agent/internal/llmimpl/anthropic"
	"appforge/pkg/agent/internal/llmimpl/google"
	"appforge/pkg/agent/internal/llmimpl/ollama"
	"appforge/pkg/agent/internal/llmimpl/openaiofficial"
	"appforge/pkg/agent/llm"
	"appforge/pkg/agent/middleware/metrics"
	"appforge/pkg/limiter"
)

// Provider name constants.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// Default models per provider.
const (
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-5"
	DefaultGoogleModel    = "gemini-2.5-pro"
	DefaultOllamaModel    = "qwen3:8b"
)

// ProviderConfig selects and configures one provider client.
type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	HostURL  string // Ollama only

	// TokensPerMinute rate-limits requests to the provider. Zero
	// disables limiting.
	TokensPerMinute int
}

// NewRawClient constructs the raw provider client with no middleware.
func NewRawClient(cfg *ProviderConfig) (llm.Client, error) {
	model := cfg.Model
	switch cfg.Provider {
	case ProviderAnthropic:
		if model == "" {
			model = DefaultAnthropicModel
		}
		return anthropic.NewClient(cfg.APIKey, model), nil
	case ProviderOpenAI:
		if model == "" {
			model = DefaultOpenAIModel
		}
		return openaiofficial.NewClient(cfg.APIKey, model), nil
	case ProviderGoogle:
		if model == "" {
			model = DefaultGoogleModel
		}
		return google.NewClient(cfg.APIKey, model), nil
	case ProviderOllama:
		if model == "" {
			model = DefaultOllamaModel
		}
		return ollama.NewClient(cfg.HostURL, model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
}

// NewClient constructs a provider client with the full middleware
// chain applied, labeled with jobID for metrics.
func NewClient(cfg *ProviderConfig, recorder metrics.Recorder, jobID string) (llm.Client, error) {
	raw, err := NewRawClient(cfg)
	if err != nil {
		return nil, err
	}
	var client llm.Client = NewRetryableClient(raw)
	if cfg.TokensPerMinute > 0 {
		client = NewLimitedClient(client, limiter.New(cfg.TokensPerMinute))
	}
	return NewMeteredClient(client, recorder, jobID), nil
}
