// Package provider implements the backend adapters behind the uniform
// model.Provider calling convention. Each adapter owns the translation
// between the shared wire shapes and its SDK: Groq speaks the
// OpenAI-compatible chat-completions protocol, Anthropic uses system
// blocks and base64 image blocks, Ollama takes raw image bytes. Errors
// are classified into the model package's taxonomy so callers never
// inspect SDK error types.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"metanoia/model"
)

// DefaultGroqBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider implements model.Provider against the Groq API, including
// the agentic compound models whose responses carry executed-tool
// payloads.
type GroqProvider struct {
	client  openai.Client
	baseURL string
}

// NewGroqProvider creates a Groq provider. The API key is required;
// without one every dispatch would fail, so construction fails instead.
func NewGroqProvider(baseURL, apiKey string) (*GroqProvider, error) {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GROQ_API_KEY is not set", model.ErrNotConfigured)
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &GroqProvider{client: client, baseURL: baseURL}, nil
}

// Name implements model.Provider.
func (p *GroqProvider) Name() string { return "groq" }

// Chat implements model.Provider.Chat with streaming.
func (p *GroqProvider) Chat(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	return p.stream(ctx, req, cb)
}

// ChatWithImage implements model.Provider.ChatWithImage. The wire
// conversion already handles multimodal parts, so the streaming path is
// shared.
func (p *GroqProvider) ChatWithImage(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	return p.stream(ctx, req, cb)
}

func (p *GroqProvider) stream(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}
	var text strings.Builder

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			content := chunk.Choices[0].Delta.Content
			text.WriteString(content)
			if cb != nil {
				if err := cb(content); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, classifyOpenAIError(err)
	}

	return &model.ChatResult{
		Text:      text.String(),
		ToolCalls: executedTools(acc),
	}, nil
}

// executedTools extracts the compound models' executed_tools payload from
// the accumulated response. The field is not part of the standard
// chat-completions schema, so it only surfaces through the response's
// extra fields; extraction is best-effort and a missing or unparseable
// payload simply yields no tool calls.
func executedTools(acc openai.ChatCompletionAccumulator) []model.RawToolCall {
	if len(acc.Choices) == 0 {
		return nil
	}
	field, ok := acc.Choices[0].Message.JSON.ExtraFields["executed_tools"]
	if !ok || !field.Valid() {
		return nil
	}

	var calls []model.RawToolCall
	if err := json.Unmarshal([]byte(field.Raw()), &calls); err != nil {
		return nil
	}
	return calls
}

// classifyOpenAIError maps SDK errors onto the core taxonomy. Groq
// signals payload-too-large both as 413 and as a 429 whose body names the
// request size, so both map to capacity.
func classifyOpenAIError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusRequestEntityTooLarge, http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", model.ErrCapacity, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", model.ErrNotConfigured, err)
		}
	}
	if msg := err.Error(); strings.Contains(msg, "too large") || strings.Contains(msg, "rate_limit") {
		return fmt.Errorf("%w: %v", model.ErrCapacity, err)
	}
	return fmt.Errorf("%w: %v", model.ErrTransport, err)
}

// Ping implements model.Provider.Ping by listing models.
func (p *GroqProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("groq ping failed: %w", classifyOpenAIError(err))
	}
	return nil
}
