package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/prepgen/internal/store"
	"go.uber.org/zap"
)

// Providers is the pair of models a gap-fill run talks to.
type Providers struct {
	// Primary generates questions and passages.
	Primary Provider
	// Secondary adjudicates semantic duplicates.
	Secondary Provider
}

// NewProviders creates the primary and secondary providers from
// configuration. Both are wrapped with timeout and logging middleware.
func NewProviders(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *zap.Logger) (*Providers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	primary, err := NewProvider(ctx, cfg, eventRepo, log)
	if err != nil {
		return nil, err
	}
	secondary, err := NewProvider(ctx, cfg.Secondary(), eventRepo, log)
	if err != nil {
		return nil, fmt.Errorf("secondary model: %w", err)
	}
	return &Providers{Primary: primary, Secondary: secondary}, nil
}

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout and logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → logging → timeout → base
	bounded := WithTimeout(base, cfg.Timeout)
	logged := WithLogging(bounded, cfg.Provider, eventRepo, log)

	return logged, nil
}
