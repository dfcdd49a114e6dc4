package provider

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"metanoia/model"
)

// toOpenAIMessages converts wire messages to the OpenAI chat-completions
// shape used by the Groq adapter. Text-only messages map by role;
// multimodal messages become ordered content parts in their wire order.
func toOpenAIMessages(messages []model.ProviderMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		if msg.IsMultimodal() {
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Parts))
			for _, part := range msg.Parts {
				switch part.Type {
				case "text":
					parts = append(parts, openai.TextContentPart(part.Text))
				case "image_url":
					if part.ImageURL != nil {
						parts = append(parts, openai.ImageContentPart(
							openai.ChatCompletionContentPartImageImageURLParam{URL: part.ImageURL.URL},
						))
					}
				}
			}
			result = append(result, openai.UserMessage(parts))
			continue
		}

		switch msg.Role {
		case "system":
			result = append(result, openai.SystemMessage(msg.Content))
		case "assistant":
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

// toAnthropicMessages converts wire messages to the Anthropic shape.
// System messages move into the separate system-blocks parameter; inline
// data URIs become base64 image blocks.
func toAnthropicMessages(messages []model.ProviderMessage) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == "system" {
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: msg.Content})
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion
		if msg.IsMultimodal() {
			for _, part := range msg.Parts {
				switch part.Type {
				case "text":
					blocks = append(blocks, anthropic.NewTextBlock(part.Text))
				case "image_url":
					if part.ImageURL == nil {
						continue
					}
					mime, payload, err := splitDataURI(part.ImageURL.URL)
					if err != nil {
						// The assembler only folds in prepared
						// images; anything else is dropped here.
						continue
					}
					blocks = append(blocks, anthropic.NewImageBlockBase64(mime, payload))
				}
			}
		} else {
			blocks = []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)}
		}

		if msg.Role == "assistant" {
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		} else {
			result = append(result, anthropic.NewUserMessage(blocks...))
		}
	}

	return result, systemBlocks
}

// toOllamaMessages converts wire messages to the Ollama shape. Ollama
// takes images as raw bytes alongside the text content.
func toOllamaMessages(messages []model.ProviderMessage) []api.Message {
	result := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		out := api.Message{Role: msg.Role, Content: msg.Content}
		if msg.IsMultimodal() {
			for _, part := range msg.Parts {
				switch part.Type {
				case "text":
					out.Content += part.Text
				case "image_url":
					if part.ImageURL == nil {
						continue
					}
					_, payload, err := splitDataURI(part.ImageURL.URL)
					if err != nil {
						continue
					}
					raw, err := base64.StdEncoding.DecodeString(payload)
					if err != nil {
						continue
					}
					out.Images = append(out.Images, api.ImageData(raw))
				}
			}
		}
		result = append(result, out)
	}
	return result
}

// splitDataURI splits a data:<mime>;base64,<payload> URI into its mime
// type and base64 payload.
func splitDataURI(uri string) (mime, payload string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("malformed data URI")
	}
	mime, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", "", fmt.Errorf("data URI is not base64-encoded")
	}
	return mime, payload, nil
}
