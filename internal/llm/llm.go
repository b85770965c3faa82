package llm

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mohammad-safakhou/tutor/config"
)

// Message is one turn of a conversation passed to the model.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// Provider is the interface every language model implementation must satisfy.
type Provider interface {
	// Generate answers a single prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// Chat answers the final user message given prior turns.
	Chat(ctx context.Context, messages []Message) (string, error)
	// EmbeddingFunc returns the embedding function backing the vector index,
	// or nil when the provider cannot embed.
	EmbeddingFunc() chromem.EmbeddingFunc
}

// NewProvider creates a provider from configuration. Selection happens once
// here, not per call.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires llm.api_key (or OPENAI_API_KEY)")
		}
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// Unavailable is a provider that always errors. It stands in when no real
// provider could be configured, so callers hit their degraded paths instead
// of a nil dereference.
type Unavailable struct{ Reason error }

func (u Unavailable) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("llm unavailable: %w", u.Reason)
}

func (u Unavailable) Chat(context.Context, []Message) (string, error) {
	return "", fmt.Errorf("llm unavailable: %w", u.Reason)
}

func (Unavailable) EmbeddingFunc() chromem.EmbeddingFunc { return nil }
