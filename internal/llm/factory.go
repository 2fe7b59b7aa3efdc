package llm

import (
	"context"
	"fmt"
)

// Factory builds a Provider by name.
type Factory func(ctx context.Context, provider string, cfg ProviderConfig) (Provider, error)

// NewProvider is the default Factory.
func NewProvider(ctx context.Context, provider string, cfg ProviderConfig) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch provider {
	case ProviderGemini:
		p, err = NewGeminiProvider(ctx, cfg)
	case ProviderOpenAI:
		p, err = NewOpenAIProvider(cfg)
	case ProviderAnthropic:
		p, err = NewAnthropicProvider(cfg)
	case ProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", provider, err)
	}
	return p, nil
}
