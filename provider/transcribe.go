package provider

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"metanoia/model"
)

// whisperModel is Groq's hosted Whisper deployment.
const whisperModel = "whisper-large-v3"

// Transcriber converts an audio attachment into plain text. The result is
// submitted as an ordinary user turn, so transcription never touches the
// context-assembly path.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// GroqTranscriber implements Transcriber against the Groq audio endpoint
// (OpenAI-compatible Whisper API).
type GroqTranscriber struct {
	client openai.Client
}

// NewGroqTranscriber creates a transcriber. The API key is required.
func NewGroqTranscriber(baseURL, apiKey string) (*GroqTranscriber, error) {
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
	return &GroqTranscriber{client: client}, nil
}

// Transcribe implements Transcriber.
func (t *GroqTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: whisperModel,
		File:  audio,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", classifyOpenAIError(err))
	}
	return resp.Text, nil
}
