// Package explain turns a duplicate verdict into a short human-readable
// explanation. It defines a provider-agnostic LLM interface with OpenAI and
// Anthropic implementations and a deterministic mock for testing. The
// generator consumes pre-assembled prompts.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// Provider names an LLM backend
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderMock      Provider = "mock"
)

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate produces text from a prompt using the configured model.
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	Provider Provider `yaml:"provider"`

	// Model specifies the model identifier (e.g., "gpt-4o-mini", "claude-sonnet-4-5")
	Model string `yaml:"model"`

	// Temperature controls randomness (0 = provider default)
	Temperature float32 `yaml:"temperature"`

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int `yaml:"max_tokens"`

	// APIKey is the authentication key for the provider
	APIKey string `yaml:"-"`
}

// DefaultLLMConfig returns defaults for verdict explanations.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:  ProviderOpenAI,
		Model:     "gpt-4o-mini",
		MaxTokens: 800,
	}
}

// NewLLM builds the LLM named by config.Provider
func NewLLM(config LLMConfig) (LLM, error) {
	switch Provider(strings.ToLower(string(config.Provider))) {
	case ProviderOpenAI, "":
		return NewOpenAILLM(config)
	case ProviderAnthropic:
		return NewAnthropicLLM(config)
	case ProviderMock:
		return &MockLLM{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, config.Provider)
	}
}
