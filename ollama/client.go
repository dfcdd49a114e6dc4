// Package ollama wraps the Ollama API client with the small surface the
// provider adapter needs: streamed chat and a reachability check.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// DefaultBaseURL is the local Ollama server address.
const DefaultBaseURL = "http://localhost:11434"

// StreamCallback receives each streamed content chunk.
type StreamCallback func(chunk string) error

// Client is a thin wrapper over api.Client.
type Client struct {
	client  *api.Client
	baseURL string
}

// NewClient creates a client for the given server URL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(parsed, http.DefaultClient),
		baseURL: baseURL,
	}, nil
}

// Chat streams a chat request, invoking cb per content chunk, and
// returns the accumulated response text.
func (c *Client) Chat(ctx context.Context, req *api.ChatRequest, cb StreamCallback) (string, error) {
	full := ""
	respFunc := func(resp api.ChatResponse) error {
		if resp.Message.Content != "" {
			full += resp.Message.Content
			if cb != nil {
				return cb(resp.Message.Content)
			}
		}
		return nil
	}

	if err := c.client.Chat(ctx, req, respFunc); err != nil {
		return "", err
	}
	return full, nil
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama server unreachable at %s: %w", c.baseURL, err)
	}
	return nil
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}
