package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"metanoia/model"
)

// DefaultAnthropicBaseURL is the Anthropic API endpoint.
const DefaultAnthropicBaseURL = "https://api.anthropic.com"

// anthropicDefaultMaxTokens is used when the request does not set one;
// the Anthropic API requires the field.
const anthropicDefaultMaxTokens = 1024

// AnthropicProvider implements model.Provider using the official
// Anthropic SDK.
type AnthropicProvider struct {
	client  *anthropic.Client
	baseURL string
}

// NewAnthropicProvider creates an Anthropic provider. The API key is
// required.
func NewAnthropicProvider(baseURL, apiKey string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", model.ErrNotConfigured)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{client: &client, baseURL: baseURL}, nil
}

// Name implements model.Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Chat implements model.Provider.Chat with streaming.
func (p *AnthropicProvider) Chat(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	return p.stream(ctx, req, cb)
}

// ChatWithImage implements model.Provider.ChatWithImage; multimodal
// parts are handled by the wire conversion.
func (p *AnthropicProvider) ChatWithImage(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	return p.stream(ctx, req, cb)
}

func (p *AnthropicProvider) stream(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
	messages, systemBlocks := toAnthropicMessages(req.Messages)

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	msg := anthropic.Message{}
	var text strings.Builder

	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulate message: %w", err)
		}

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				text.WriteString(deltaVariant.Text)
				if cb != nil {
					if err := cb(deltaVariant.Text); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, classifyAnthropicError(err)
	}

	return &model.ChatResult{
		Text:      text.String(),
		ToolCalls: anthropicToolCalls(msg.Content),
	}, nil
}

// anthropicToolCalls converts tool-use blocks of the final message into
// raw tool-call payloads. Tool names are mapped onto the canonical kinds;
// anything unrecognized passes through unchanged and the normalizer
// decides whether it is usable.
func anthropicToolCalls(content []anthropic.ContentBlockUnion) []model.RawToolCall {
	var calls []model.RawToolCall
	for _, block := range content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			calls = append(calls, model.RawToolCall{
				Type:  canonicalToolType(toolUse.Name),
				Input: toolUse.Input,
			})
		}
	}
	return calls
}

func canonicalToolType(name string) string {
	switch name {
	case "web_search", "search":
		return "search"
	case "code_execution", "bash", "python":
		return "code_execution"
	default:
		return name
	}
}

func classifyAnthropicError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusRequestEntityTooLarge, http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", model.ErrCapacity, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", model.ErrNotConfigured, err)
		}
	}
	if strings.Contains(err.Error(), "prompt is too long") {
		return fmt.Errorf("%w: %v", model.ErrCapacity, err)
	}
	return fmt.Errorf("%w: %v", model.ErrTransport, err)
}

// Ping implements model.Provider.Ping. Anthropic has no health endpoint,
// so a minimal one-token request stands in.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeSonnet4_5_20250929,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("anthropic ping failed: %w", classifyAnthropicError(err))
	}
	return nil
}
