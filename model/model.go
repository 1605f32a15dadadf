package model

import (
	"context"
	"fmt"
	"sync"
)

// Request captures the normalized model input produced by the reasoning
// components. Image is optional raw bytes (PNG or JPEG); when present the
// adapter attaches it to the user message so vision-capable models can see it.
type Request struct {
	System    string // optional system instruction
	Prompt    string // user prompt text
	Image     []byte // optional image bytes
	ImageMIME string // e.g. "image/png"; required when Image is set
	MaxTokens int64  // response token cap; 0 uses the adapter default
}

// Response is the final completion returned by a model.
type Response struct {
	Text         string
	FinishReason string // "stop", "length", etc.
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsImage bool   `json:"supports_image"`
}

// Model is the minimal interface required to drive generation. Adapters must
// honor ctx cancellation and return an error rather than panicking; callers
// own the fallback policy.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests. Responses are
// consumed FIFO; when the queue is empty the Default text (or a synthesized
// echo) is returned. Set Err to simulate provider failures.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	queue    []string
	Default  string
	Err      error
	Requests []Request
}

// NewMockModel constructs a MockModel with image support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsImage: true},
	}
}

// Enqueue registers canned completions returned in order by Generate.
func (m *MockModel) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.queue) > 0 {
		text := m.queue[0]
		m.queue = m.queue[1:]
		return &Response{Text: text, FinishReason: "stop"}, nil
	}
	if m.Default != "" {
		return &Response{Text: m.Default, FinishReason: "stop"}, nil
	}
	return &Response{Text: fmt.Sprintf("Mock response to: %s", req.Prompt), FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// CallCount returns how many Generate calls were recorded.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
