// Package config loads metanoia's on-disk configuration and applies
// environment overrides. API keys are never written to the config file;
// they come from the environment only (GROQ_API_KEY, ANTHROPIC_API_KEY).
package config

import "os"

// GenerationConfig holds the default generation parameters a new session
// starts with. All of them can be changed per-session at runtime.
type GenerationConfig struct {
	DefaultModel  string  `toml:"default_model"`
	Temperature   float64 `toml:"temperature"`
	MaxTokens     int     `toml:"max_tokens"`
	SystemPrompt  string  `toml:"system_prompt,omitempty"`
	EnableAgentic bool    `toml:"enable_agentic"`
}

// ProvidersConfig holds per-provider endpoint overrides. Empty values
// mean the provider's built-in default endpoint.
type ProvidersConfig struct {
	GroqBaseURL      string `toml:"groq_base_url,omitempty"`
	AnthropicBaseURL string `toml:"anthropic_base_url,omitempty"`
	OllamaHost       string `toml:"ollama_host"`
}

// FileConfig is the TOML shape of the config file.
type FileConfig struct {
	Generation GenerationConfig `toml:"generation"`
	Providers  ProvidersConfig  `toml:"providers"`
}

// Config is the resolved runtime configuration: file values with
// environment overrides applied, plus the environment-only credentials.
type Config struct {
	DefaultModel  string
	Temperature   float64
	MaxTokens     int
	SystemPrompt  string
	EnableAgentic bool

	GroqBaseURL      string
	AnthropicBaseURL string
	OllamaHost       string

	GroqAPIKey      string
	AnthropicAPIKey string
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("METANOIA_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("METANOIA_SYSTEM_PROMPT"); v != "" {
		c.SystemPrompt = v
	}
	if v := os.Getenv("METANOIA_OLLAMA_HOST"); v != "" {
		c.OllamaHost = v
	}
	if v := os.Getenv("METANOIA_GROQ_BASE_URL"); v != "" {
		c.GroqBaseURL = v
	}
	if v := os.Getenv("METANOIA_ANTHROPIC_BASE_URL"); v != "" {
		c.AnthropicBaseURL = v
	}
	c.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	c.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
}

// CheckDebug reports whether debug logging is requested via the
// environment.
func CheckDebug() bool {
	debug := os.Getenv("METANOIA_DEBUG")
	return debug == "true" || debug == "1"
}

// Load reads the config file (creating it with defaults on first run)
// and applies environment overrides.
func Load() (*Config, error) {
	fileCfg, err := LoadFileConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DefaultModel:     fileCfg.Generation.DefaultModel,
		Temperature:      fileCfg.Generation.Temperature,
		MaxTokens:        fileCfg.Generation.MaxTokens,
		SystemPrompt:     fileCfg.Generation.SystemPrompt,
		EnableAgentic:    fileCfg.Generation.EnableAgentic,
		GroqBaseURL:      fileCfg.Providers.GroqBaseURL,
		AnthropicBaseURL: fileCfg.Providers.AnthropicBaseURL,
		OllamaHost:       fileCfg.Providers.OllamaHost,
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}
