// Package llm holds the language model clients used for recipe extraction.
package llm

import (
	"context"
	"fmt"

	"meal-planner/internal/config"
	"meal-planner/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewFromConfig builds the generator of the configured provider.
func NewFromConfig(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	key, err := cfg.LLMAPIKey()
	if err != nil {
		return nil, err
	}
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, key)
	case config.ProviderOpenAI:
		return NewOpenAIClient(key), nil
	case config.ProviderGroq:
		return NewGroqClient(key), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
