// Package session owns all per-conversation state: the canonical message
// log, the tool-result store, the response cache, and the generation
// settings. A session is an explicit state object created at session
// start and destroyed at teardown; core operations take it as a
// parameter, there is no ambient global state.
//
// One session is one logical thread of control: the caller submits one
// turn at a time and blocks until streaming completes or fails. Sessions
// are isolated from each other; the model registry is the only structure
// deliberately shared across sessions (read-only).
package session

import (
	"log/slog"

	"github.com/google/uuid"

	"metanoia/agentic"
	"metanoia/assembler"
	"metanoia/cache"
	"metanoia/model"
)

// Settings is the session-visible configuration consumed by the core.
// Temperature and MaxTokens pass through to the provider unmodified;
// EnableAgentic gates the tool-digest injection.
type Settings struct {
	ModelID       string
	Temperature   float64
	MaxTokens     int
	SystemPrompt  string
	EnableAgentic bool
}

// ProviderResolver returns the adapter for a profile. Injected so the
// session never constructs providers itself (and tests can substitute
// mocks).
type ProviderResolver func(profile model.Profile) (model.Provider, error)

// Session is the state of one conversation.
type Session struct {
	ID       string
	Log      *model.ConversationLog
	Store    *agentic.Store
	Cache    *cache.ResponseCache
	Settings Settings

	registry  *model.Registry
	assembler *assembler.Assembler
	resolve   ProviderResolver
	logger    *slog.Logger
	state     TurnState
}

// New creates a session. The registry is shared; everything else is
// created fresh and owned by this session.
func New(registry *model.Registry, resolve ProviderResolver, settings Settings, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("component", "session", "session", id)

	return &Session{
		ID:        id,
		Log:       model.NewConversationLog(),
		Store:     agentic.NewStore(logger),
		Cache:     cache.New(),
		Settings:  settings,
		registry:  registry,
		assembler: assembler.New(logger),
		resolve:   resolve,
		logger:    logger,
		state:     StateIdle,
	}
}

// Profile returns the active model profile, falling back to the default
// for unknown IDs.
func (s *Session) Profile() model.Profile {
	return s.registry.GetOrDefault(s.Settings.ModelID)
}

// SwitchModel changes the active model. Switching never deletes log or
// store entries: previously established context survives the switch, and
// tool-derived knowledge reaches the new model through the digest.
func (s *Session) SwitchModel(id string) model.Profile {
	s.Settings.ModelID = id
	profile := s.Profile()
	s.logger.Info("model switched", "model", profile.ID, "budget", profile.MaxContextMessages)
	return profile
}

// State returns the turn state machine's current state.
func (s *Session) State() TurnState {
	return s.state
}

// Close tears the session down, clearing the log and the tool store.
func (s *Session) Close() {
	s.Log.Clear()
	s.Store.Clear()
	s.state = StateIdle
	s.logger.Info("session closed")
}
