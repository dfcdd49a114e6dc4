package model

import "context"

// StreamCallback is invoked once per streamed text chunk. Returning an
// error aborts consumption of the stream on the caller's side; there is no
// provider-side cancellation beyond the context.
type StreamCallback func(chunk string) error

// ChatRequest is the uniform provider call: an already-assembled,
// budget-bounded message list plus pass-through generation parameters.
type ChatRequest struct {
	Model       string
	Messages    []ProviderMessage
	Temperature float64
	MaxTokens   int
}

// ChatResult is the completed response of a provider call: the full text
// and any raw tool-call payloads the provider executed on its side.
type ChatResult struct {
	Text      string
	ToolCalls []RawToolCall
}

// Provider is the uniform calling convention every backend adapter
// implements. Adapters own all wire-format translation; callers hand them
// provider-ready messages and a callback for incremental text.
//
// The interface is defined here rather than in the provider package so
// that session and assembler code can depend on it without importing any
// adapter (same import-cycle reasoning as the rest of this package).
type Provider interface {
	// Name returns the adapter ID ("groq", "anthropic", "ollama").
	Name() string

	// Chat streams a completion for a text-only message list.
	Chat(ctx context.Context, req ChatRequest, cb StreamCallback) (*ChatResult, error)

	// ChatWithImage streams a completion where the final user message
	// carries multimodal parts. Same contract as Chat; only called for
	// vision-capable profiles.
	ChatWithImage(ctx context.Context, req ChatRequest, cb StreamCallback) (*ChatResult, error)

	// Ping checks whether the backend is reachable and the credentials
	// are accepted.
	Ping(ctx context.Context) error
}
