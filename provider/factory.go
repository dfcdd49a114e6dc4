package provider

import (
	"fmt"

	"metanoia/model"
)

// Type identifies an adapter implementation.
type Type string

const (
	TypeGroq      Type = "groq"
	TypeAnthropic Type = "anthropic"
	TypeOllama    Type = "ollama"
)

// Config holds adapter-specific construction parameters. Model selection
// is per-request, not per-adapter: the same adapter serves every profile
// of its provider.
type Config struct {
	Type    Type
	BaseURL string
	APIKey  string
}

// New creates an adapter from configuration. This is the single place
// that routes a profile's provider ID to an implementation.
func New(cfg Config) (model.Provider, error) {
	switch cfg.Type {
	case TypeGroq:
		return NewGroqProvider(cfg.BaseURL, cfg.APIKey)
	case TypeAnthropic:
		return NewAnthropicProvider(cfg.BaseURL, cfg.APIKey)
	case TypeOllama:
		return NewOllamaProvider(cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}
