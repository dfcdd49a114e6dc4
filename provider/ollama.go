package provider

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"

	"metanoia/model"
	"metanoia/ollama"
)

// OllamaProvider implements model.Provider against a local Ollama server.
// Local models never execute agentic tools, so results never carry tool
// calls.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates an Ollama provider. No credentials are
// involved; only the server URL can be invalid.
func NewOllamaProvider(baseURL string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &OllamaProvider{client: client}, nil
}

// Name implements model.Provider.
func (p *OllamaProvider) Name() string { return "ollama" }

// Chat implements model.Provider.Chat with streaming.
func (p *OllamaProvider) Chat(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	return p.stream(ctx, req, cb)
}

// ChatWithImage implements model.Provider.ChatWithImage. The wire
// conversion turns data URIs into the raw image bytes Ollama expects.
func (p *OllamaProvider) ChatWithImage(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	return p.stream(ctx, req, cb)
}

func (p *OllamaProvider) stream(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	stream := true
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req.Messages),
		Stream:   &stream,
		Options:  map[string]any{},
	}
	if req.Temperature > 0 {
		chatReq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = req.MaxTokens
	}

	text, err := p.client.Chat(ctx, chatReq, ollama.StreamCallback(cb))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTransport, err)
	}

	return &model.ChatResult{Text: text}, nil
}

// Ping implements model.Provider.Ping.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
