package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for model interaction.
type Provider interface {
	// Generate sends a prompt and returns the response. When req.Schema is
	// set the response Content is JSON validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the default model identifier.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	System   string
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	Schema *Schema

	// Model overrides the provider's configured model for this call.
	Model string

	MaxTokens   int
	Temperature float64
}

// Message is a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema, kebab-case, e.g. "answer-grade".
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model's output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end", "max_tokens"
}

// Usage reports token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// resolveModel maps a friendly model name to a provider model ID.
// Unknown names pass through unchanged.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}

// pickModel returns the per-request override when set.
func pickModel(override, configured string, models map[string]string) string {
	if override != "" {
		return resolveModel(override, models)
	}
	return configured
}
