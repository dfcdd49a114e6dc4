package config

func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Generation: GenerationConfig{
			DefaultModel:  "deepseek-r1-distill-llama-70b",
			Temperature:   0.7,
			MaxTokens:     1024,
			EnableAgentic: true,
		},
		Providers: ProvidersConfig{
			OllamaHost: "http://localhost:11434",
		},
	}
}

func GenerateConfigTemplate() string {
	return `# Metanoia Configuration
# Location: ~/.config/metanoia/config.toml
# This file uses TOML format: https://toml.io
#
# API keys are NOT stored here. Set them in the environment:
#   GROQ_API_KEY, ANTHROPIC_API_KEY

[generation]
# Model to use when starting a new session (see /models for the list)
default_model = "deepseek-r1-distill-llama-70b"

# Sampling temperature passed through to the provider
temperature = 0.7

# Maximum response tokens passed through to the provider
max_tokens = 1024

# System prompt for new sessions (optional)
# Example: "You are a helpful coding assistant."
system_prompt = ""

# Fold agentic tool results (web search, code execution) into context
enable_agentic = true

[providers]
# Override Groq's endpoint (optional, defaults to the public API)
#groq_base_url = "https://api.groq.com/openai/v1"

# Override Anthropic's endpoint (optional, defaults to the public API)
#anthropic_base_url = "https://api.anthropic.com"

# Ollama server URL for local models
ollama_host = "http://localhost:11434"
`
}
