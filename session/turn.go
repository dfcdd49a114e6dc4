package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"metanoia/assembler"
	"metanoia/cache"
	"metanoia/imageproc"
	"metanoia/model"
)

// TurnState tracks where the single-turn pipeline currently is. Exactly
// one turn is in flight per session; ProcessTurn rejects re-entry while a
// prior turn is still running.
type TurnState int

const (
	StateIdle TurnState = iota
	StateAssembling
	StateDispatched
	StateStreaming
	StateCompleted
	StateFailed
)

func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAssembling:
		return "assembling"
	case StateDispatched:
		return "dispatched"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Turn is one user submission: text plus an optional raw image payload
// (unprocessed bytes as read from disk or paste).
type Turn struct {
	Text  string
	Image []byte
}

// TurnResult reports a completed turn.
type TurnResult struct {
	Reply     string
	ToolCalls int
	FromCache bool
	Profile   model.Profile
	Elapsed   time.Duration
}

// ErrTurnInFlight is returned when ProcessTurn is called while a previous
// turn has not finished.
var ErrTurnInFlight = errors.New("session: turn already in flight")

// ProcessTurn runs one full turn: image preparation, context assembly,
// cache probe, provider dispatch, stream consumption, tool-result
// ingestion, and log append. cb receives the reply incrementally; on a
// cache hit the cached text is replayed through cb in one chunk.
//
// A failed turn leaves the log without an assistant message for it; there
// is no automatic retry. An attachment failure aborts before anything is
// appended, so the log is untouched.
func (s *Session) ProcessTurn(ctx context.Context, turn Turn, cb model.StreamCallback) (*TurnResult, error) {
	switch s.state {
	case StateIdle, StateCompleted, StateFailed:
	default:
		return nil, ErrTurnInFlight
	}

	start := time.Now()
	profile := s.Profile()
	s.state = StateAssembling

	var imageRef *model.ImageRef
	if len(turn.Image) > 0 {
		ref, err := imageproc.Prepare(turn.Image, imageproc.LimitsFor(profile))
		if err != nil {
			// Abort before touching the log: the user can fix the
			// attachment and resubmit the same turn.
			s.state = StateFailed
			return nil, &model.AttachmentError{
				Remediation: remediationFor(err),
				Err:         err,
			}
		}
		imageRef = &ref
	}

	msgs := s.assembler.Assemble(s.Log, profile, s.Store, assembler.Options{
		SystemPrompt:  s.Settings.SystemPrompt,
		EnableAgentic: s.Settings.EnableAgentic,
		UserText:      turn.Text,
		Image:         imageRef,
	})

	key := cache.Key(profile.ID, msgs, s.Settings.Temperature, s.Settings.MaxTokens)
	if cached, ok := s.Cache.Get(key); ok {
		return s.completeFromCache(profile, turn, imageRef, cached, cb, start)
	}

	provider, err := s.resolve(profile)
	if err != nil {
		s.state = StateFailed
		return nil, fmt.Errorf("resolving provider for %s: %w", profile.ID, err)
	}

	s.Log.Append(model.NewUserMessage(turn.Text, imageRef))
	s.state = StateDispatched
	s.logger.Info("turn dispatched",
		"model", profile.ID, "provider", provider.Name(),
		"messages", len(msgs), "image", imageRef != nil)

	req := model.ChatRequest{
		Model:       profile.ID,
		Messages:    msgs,
		Temperature: s.Settings.Temperature,
		MaxTokens:   s.Settings.MaxTokens,
	}

	streaming := func(chunk string) error {
		s.state = StateStreaming
		return cb(chunk)
	}

	var result *model.ChatResult
	if imageRef != nil && profile.SupportsVision {
		result, err = provider.ChatWithImage(ctx, req, streaming)
	} else {
		result, err = provider.Chat(ctx, req, streaming)
	}
	if err != nil {
		s.state = StateFailed
		if errors.Is(err, model.ErrCapacity) {
			s.assembler.ShrinkBudget(profile)
		}
		s.logger.Error("turn failed", "model", profile.ID, "error", err)
		// The user message stays; the missing assistant reply is the
		// honest record of the failure.
		return nil, err
	}

	refs := s.Store.Ingest(result.ToolCalls)

	reply := model.NewTextMessage(model.RoleAssistant, result.Text)
	reply.ModelUsed = profile.ID
	reply.ToolResultRefs = refs
	s.Log.Append(reply)

	s.Cache.Put(key, cache.CachedResponse{Text: result.Text, ToolCalls: result.ToolCalls})

	s.state = StateCompleted
	elapsed := time.Since(start)
	s.logger.Info("turn completed",
		"model", profile.ID, "tool_calls", len(result.ToolCalls),
		"elapsed", elapsed.Round(time.Millisecond))

	return &TurnResult{
		Reply:     result.Text,
		ToolCalls: len(result.ToolCalls),
		Profile:   profile,
		Elapsed:   elapsed,
	}, nil
}

// remediationFor maps an attachment failure to the user-facing fix.
func remediationFor(err error) string {
	switch {
	case errors.Is(err, model.ErrUnsupportedFormat):
		return "Use a JPEG, PNG, or GIF image."
	case errors.Is(err, model.ErrImageTooLarge):
		return "Use a smaller image; it could not be compressed under the provider's size limit."
	default:
		return "Check the image file and try again."
	}
}

// completeFromCache replays a cached reply without a provider round trip.
// The user and assistant messages are still appended so the log stays the
// full record, but the cached tool calls are not re-ingested: the store
// already holds the records from the turn that produced them.
func (s *Session) completeFromCache(profile model.Profile, turn Turn, image *model.ImageRef, cached cache.CachedResponse, cb model.StreamCallback, start time.Time) (*TurnResult, error) {
	if err := cb(cached.Text); err != nil {
		s.state = StateFailed
		return nil, err
	}

	s.Log.Append(model.NewUserMessage(turn.Text, image))
	reply := model.NewTextMessage(model.RoleAssistant, cached.Text)
	reply.ModelUsed = profile.ID
	s.Log.Append(reply)

	s.state = StateCompleted
	s.logger.Info("turn served from cache", "model", profile.ID)

	return &TurnResult{
		Reply:     cached.Text,
		ToolCalls: len(cached.ToolCalls),
		FromCache: true,
		Profile:   profile,
		Elapsed:   time.Since(start),
	}, nil
}
