package model

// Profile describes one usable model: identity, capability flags, and the
// message budget used as a proxy for the provider's token-rate ceiling.
// Profiles are immutable values loaded once at process start.
type Profile struct {
	ID          string
	DisplayName string

	// Provider is the backend adapter ID ("groq", "anthropic", "ollama").
	Provider string

	// ContextLength is the model's advertised token window, kept for
	// display. The assembler budgets by message count, not tokens.
	ContextLength int

	// MaxContextMessages is the number of prior user/assistant messages
	// included when calling this model. Calibrated per provider: smaller
	// budgets for models known to reject large payloads.
	MaxContextMessages int

	SupportsVision    bool
	SupportsMultiTool bool
	SupportsAgentic   bool
}

// DefaultProfile is the fallback when an unknown model ID is requested.
// Callers must fall back to it rather than fail a turn.
var DefaultProfile = Profile{
	ID:                 "deepseek-r1-distill-llama-70b",
	DisplayName:        "DeepSeek (128K)",
	Provider:           "groq",
	ContextLength:      128000,
	MaxContextMessages: 10,
}

// BuiltinProfiles is the static model table. Per-model budgets replace the
// model-id substring matching the budgets were originally derived from.
func BuiltinProfiles() []Profile {
	return []Profile{
		DefaultProfile,
		{
			ID:                 "meta-llama/llama-4-maverick-17b-128e-instruct",
			DisplayName:        "Meta Maverick (131K)",
			Provider:           "groq",
			ContextLength:      131072,
			MaxContextMessages: 5, // strict TPM ceiling on this model
			SupportsVision:     true,
		},
		{
			ID:                 "meta-llama/llama-4-scout-17b-16e-instruct",
			DisplayName:        "Meta Scout (131K)",
			Provider:           "groq",
			ContextLength:      131072,
			MaxContextMessages: 6,
			SupportsVision:     true,
		},
		{
			ID:                 "qwen-qwq-32b",
			DisplayName:        "Alibaba Qwen (128K)",
			Provider:           "groq",
			ContextLength:      128000,
			MaxContextMessages: 10,
		},
		{
			ID:                 "compound-beta",
			DisplayName:        "Compound Beta (Agentic)",
			Provider:           "groq",
			ContextLength:      128000,
			MaxContextMessages: 10,
			SupportsAgentic:    true,
			SupportsMultiTool:  true,
		},
		{
			ID:                 "compound-beta-mini",
			DisplayName:        "Compound Beta Mini (Agentic)",
			Provider:           "groq",
			ContextLength:      128000,
			MaxContextMessages: 10,
			SupportsAgentic:    true,
		},
		{
			ID:                 "claude-sonnet-4-5-20250929",
			DisplayName:        "Claude Sonnet 4.5",
			Provider:           "anthropic",
			ContextLength:      200000,
			MaxContextMessages: 8,
			SupportsVision:     true,
		},
		{
			ID:                 "llama3.1:latest",
			DisplayName:        "Llama 3.1 (local)",
			Provider:           "ollama",
			ContextLength:      128000,
			MaxContextMessages: 10,
		},
	}
}
