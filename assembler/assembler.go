// Package assembler turns the canonical conversation log into the exact
// ordered message list a provider receives: a freshly synthesized system
// message (with the tool digest folded in for agentic profiles), a
// budget-bounded window of history stripped to wire fields, and the
// current turn with any image folded in per the profile's capabilities.
//
// Assembly is deterministic: identical log, profile, and store snapshots
// produce byte-identical output. The response cache depends on this.
package assembler

import (
	"log/slog"

	"metanoia/agentic"
	"metanoia/model"
)

// VisionFallbackNotice is appended to the user text when an image was
// attached but the active model has no vision support. The image is
// omitted, never silently: the substituted notice keeps the intent loss
// visible to the model and in the log.
const VisionFallbackNotice = "[attached image ignored: model has no vision support]"

// Options carries the per-turn inputs of an assembly.
type Options struct {
	// SystemPrompt is the session's system prompt template. The system
	// message is synthesized fresh every turn; it is never drawn from
	// history.
	SystemPrompt string

	// EnableAgentic gates the tool-digest injection. When false the
	// digest is skipped even if the store is non-empty.
	EnableAgentic bool

	// UserText is the current turn's text.
	UserText string

	// Image is the current turn's prepared attachment, if any.
	Image *model.ImageRef
}

// Assembler produces provider-ready message lists and owns the
// per-profile budget overrides used to recover from capacity errors.
// Budgets only ever shrink within a session; profiles themselves are
// immutable.
type Assembler struct {
	overrides map[string]int
	logger    *slog.Logger
}

// New returns an Assembler with no budget overrides.
func New(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		overrides: make(map[string]int),
		logger:    logger.With("component", "assembler"),
	}
}

// EffectiveBudget returns the history budget for a profile: the shrunk
// override when a capacity error was recorded, otherwise the profile's
// calibrated message budget.
func (a *Assembler) EffectiveBudget(profile model.Profile) int {
	if b, ok := a.overrides[profile.ID]; ok {
		return b
	}
	return profile.MaxContextMessages
}

// ShrinkBudget halves the effective budget for a profile (floor 1) after
// the provider rejected a payload as too large. The failed turn is not
// retried; the smaller window applies from the next turn on.
func (a *Assembler) ShrinkBudget(profile model.Profile) int {
	budget := a.EffectiveBudget(profile) / 2
	if budget < 1 {
		budget = 1
	}
	a.overrides[profile.ID] = budget
	a.logger.Warn("history budget shrunk after capacity error",
		"model", profile.ID, "budget", budget)
	return budget
}

// Assemble builds the ordered provider message list for the current turn.
func (a *Assembler) Assemble(log *model.ConversationLog, profile model.Profile, store *agentic.Store, opts Options) []model.ProviderMessage {
	msgs := []model.ProviderMessage{a.systemMessage(profile, store, opts)}
	msgs = append(msgs, a.historyWindow(log, profile)...)
	msgs = append(msgs, a.currentTurn(profile, opts))
	return msgs
}

// systemMessage synthesizes the system message: the prompt template plus,
// for agentic profiles with stored tool results, the rendered digest.
func (a *Assembler) systemMessage(profile model.Profile, store *agentic.Store, opts Options) model.ProviderMessage {
	content := opts.SystemPrompt
	if opts.EnableAgentic && profile.SupportsAgentic && store != nil && store.Len() > 0 {
		if digest := store.Digest(); digest != "" {
			content += "\n\n" + digest
		}
	}
	return model.ProviderMessage{Role: string(model.RoleSystem), Content: content}
}

// historyWindow selects the most recent budget user/assistant messages in
// original order and strips them to the wire fields (role, content).
// Message count stands in for token count: per-provider tokenizers are
// unavailable, so the budget is a calibrated conservative proxy for each
// provider's token-rate ceiling.
func (a *Assembler) historyWindow(log *model.ConversationLog, profile model.Profile) []model.ProviderMessage {
	var history []model.Message
	for _, msg := range log.Messages() {
		if msg.Role == model.RoleUser || msg.Role == model.RoleAssistant {
			history = append(history, msg)
		}
	}

	budget := a.EffectiveBudget(profile)
	if len(history) > budget {
		history = history[len(history)-budget:]
	}

	out := make([]model.ProviderMessage, 0, len(history))
	for _, msg := range history {
		// Wire fields only. ModelUsed, ToolResultRefs, and image parts
		// of past turns are dropped: providers reject unknown fields,
		// and re-sending stale inline images would blow the payload
		// budget the window exists to respect.
		out = append(out, model.ProviderMessage{
			Role:    string(msg.Role),
			Content: msg.Text(),
		})
	}
	return out
}

// currentTurn folds the attachment into the final user message. With
// vision support the content becomes ordered parts, text first; without
// it the image is omitted and the fallback notice is substituted.
func (a *Assembler) currentTurn(profile model.Profile, opts Options) model.ProviderMessage {
	if opts.Image == nil {
		return model.ProviderMessage{Role: string(model.RoleUser), Content: opts.UserText}
	}

	if !profile.SupportsVision {
		a.logger.Warn("image attached to non-vision model, substituting notice", "model", profile.ID)
		return model.ProviderMessage{
			Role:    string(model.RoleUser),
			Content: opts.UserText + "\n\n" + VisionFallbackNotice,
		}
	}

	return model.ProviderMessage{
		Role: string(model.RoleUser),
		Parts: []model.WirePart{
			model.TextWirePart(opts.UserText),
			model.ImageWirePart(opts.Image.DataURI),
		},
	}
}
