package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pavelanni/examprep/internal/llm/prompts"
)

// ErrNoAPIKey is returned when neither the server nor the caller supplied
// credentials for the configured provider.
var ErrNoAPIKey = errors.New("no API key configured")

// Call is a single template-driven model invocation.
type Call struct {
	// Template names a prompt from the prompts package.
	Template string
	// Variables is the template data, e.g. prompts.GradeData.
	Variables any
	Schema    *Schema

	// Model overrides the configured model.
	Model string
	// APIKey, when set, is used instead of the server key for this call.
	APIKey string

	Temperature float64
	MaxTokens   int
}

// Gateway renders prompts and sends them to a Provider.
type Gateway struct {
	cfg      Config
	factory  Factory
	recorder Recorder
	provider Provider // nil when no server key is configured
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithFactory replaces the provider constructor.
func WithFactory(f Factory) GatewayOption {
	return func(g *Gateway) { g.factory = f }
}

// WithRecorder reports every call to rec.
func WithRecorder(rec Recorder) GatewayOption {
	return func(g *Gateway) { g.recorder = rec }
}

// WithProvider sets the default provider directly, bypassing the factory.
func WithProvider(p Provider) GatewayOption {
	return func(g *Gateway) { g.provider = p }
}

// NewGateway creates a Gateway. The default provider is built only when the
// configuration carries an API key (or names the mock provider); otherwise
// every call must bring its own key.
func NewGateway(ctx context.Context, cfg Config, opts ...GatewayOption) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Gateway{cfg: cfg, factory: NewProvider}
	for _, opt := range opts {
		opt(g)
	}
	if g.provider == nil && (cfg.APIKey != "" || cfg.Provider == ProviderMock) {
		p, err := g.factory(ctx, cfg.Provider, cfg.ProviderConfig)
		if err != nil {
			return nil, err
		}
		g.provider = p
	}
	return g, nil
}

// HasServerKey reports whether calls without their own key can succeed.
func (g *Gateway) HasServerKey() bool {
	return g.provider != nil
}

// Provider returns the configured provider name.
func (g *Gateway) Provider() string {
	return g.cfg.Provider
}

// Model returns the configured model name.
func (g *Gateway) Model() string {
	return g.cfg.Model
}

// Call renders c.Template, sends it and returns the validated response.
func (g *Gateway) Call(ctx context.Context, c Call) (*Response, error) {
	prompt, err := prompts.Render(c.Template, c.Variables)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	p, err := g.providerFor(ctx, c.APIKey)
	if err != nil {
		return nil, err
	}
	p = WithInstrumentation(p, g.recorder)

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	ctx = WithPurpose(ctx, c.Template)

	return p.Generate(ctx, Request{
		System:      prompt.System,
		Messages:    []Message{{Role: RoleUser, Content: prompt.User}},
		Schema:      c.Schema,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
}

func (g *Gateway) providerFor(ctx context.Context, apiKey string) (Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		if g.provider == nil {
			return nil, ErrNoAPIKey
		}
		return g.provider, nil
	}
	pc := g.cfg.ProviderConfig
	pc.APIKey = apiKey
	p, err := g.factory(ctx, g.cfg.Provider, pc)
	if err != nil {
		return nil, fmt.Errorf("create provider for caller key: %w", err)
	}
	return p, nil
}
