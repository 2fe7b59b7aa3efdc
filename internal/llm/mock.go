package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for tests. It returns canned
// responses in FIFO order and records all requests. Schema validation runs
// on canned content just as it would for a real backend.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request

	// Respond, when set, answers every call instead of the queue. Useful
	// when calls run concurrently and FIFO order is not deterministic.
	Respond func(Request) MockResponse
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response, or ErrProviderUnavailable when
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	var resp MockResponse
	switch {
	case m.Respond != nil:
		respond := m.Respond
		m.mu.Unlock()
		resp = respond(req)
	case len(m.responses) == 0:
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{}
	default:
		resp = m.responses[0]
		m.responses = m.responses[1:]
		m.mu.Unlock()
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	if err := validateResponse(req.Schema, resp.Content); err != nil {
		return nil, err
	}

	model := "mock"
	if req.Model != "" {
		model = req.Model
	}
	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      model,
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
