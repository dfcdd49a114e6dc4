// Package testutil provides mock providers for tests of the session and
// cache layers.
package testutil

import (
	"context"

	"metanoia/model"
)

// MockProvider implements model.Provider with configurable behavior and
// call counting, so tests can verify that cache hits bypass dispatch.
type MockProvider struct {
	// Reply is streamed through the callback and returned as the
	// result text when ChatFunc is not set.
	Reply string

	// ToolCalls are returned alongside Reply.
	ToolCalls []model.RawToolCall

	// Err, when set, fails every call after the counters update.
	Err error

	// ChatFunc overrides the default behavior entirely.
	ChatFunc func(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error)

	// Counters.
	Calls      int
	ImageCalls int

	// LastRequest records the most recent request for assertions.
	LastRequest model.ChatRequest
}

// NewMockProvider returns a mock that replies with the given text.
func NewMockProvider(reply string) *MockProvider {
	return &MockProvider{Reply: reply}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Chat(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	m.Calls++
	m.LastRequest = req
	return m.respond(ctx, req, cb)
}

func (m *MockProvider) ChatWithImage(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	m.Calls++
	m.ImageCalls++
	m.LastRequest = req
	return m.respond(ctx, req, cb)
}

func (m *MockProvider) respond(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req, cb)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if cb != nil {
		if err := cb(m.Reply); err != nil {
			return nil, err
		}
	}
	return &model.ChatResult{Text: m.Reply, ToolCalls: m.ToolCalls}, nil
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.Err
}
