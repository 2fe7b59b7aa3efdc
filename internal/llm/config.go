package llm

import (
	"fmt"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// ProviderConfig holds the settings shared by every backend.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional endpoint override

	// JSONObjectMode makes the OpenAI backend request a plain JSON object
	// instead of a strict json_schema format. Needed by some compatible
	// servers; the response is still validated locally.
	JSONObjectMode bool
}

// Config holds the gateway configuration.
type Config struct {
	Provider string
	ProviderConfig

	// Timeout bounds a single model call. Zero means no extra deadline.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderGemini,
		ProviderConfig: ProviderConfig{
			Model: "gemini-flash",
		},
		Timeout: 60 * time.Second,
	}
}

// Validate checks the provider name. A missing API key is allowed: callers
// may supply their own key per call.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}
