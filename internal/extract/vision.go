package extract

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// VisionClient reads one page image and answers a prompt with JSON text.
type VisionClient interface {
	ExtractJSON(ctx context.Context, imagePNG []byte, prompt string) (string, error)
	Model() string
}

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ProviderConfig selects and configures a vision provider.
type ProviderConfig struct {
	Provider       string
	AnthropicKey   string
	AnthropicModel string
	OpenAIKey      string
	OpenAIModel    string
	Timeout        time.Duration
}

// NewVisionClient builds the client for the configured provider.
func NewVisionClient(cfg ProviderConfig) (VisionClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return NewClaudeClient(ClaudeConfig{APIKey: cfg.AnthropicKey, Model: cfg.AnthropicModel, Timeout: cfg.Timeout}), nil
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIClient(OpenAIConfig{APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, Timeout: cfg.Timeout}), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}
}
