package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"metanoia/model"
	"metanoia/provider/testutil"
	"metanoia/session"
)

func newTestSession(t *testing.T, mock *testutil.MockProvider, settings session.Settings) *session.Session {
	t.Helper()
	resolve := func(profile model.Profile) (model.Provider, error) {
		return mock, nil
	}
	return session.New(model.NewBuiltinRegistry(), resolve, settings, nil)
}

func discard(chunk string) error { return nil }

func TestProcessTurnAppendsBothMessages(t *testing.T) {
	mock := testutil.NewMockProvider("the answer")
	sess := newTestSession(t, mock, session.Settings{ModelID: "deepseek-r1-distill-llama-70b"})

	var streamed string
	result, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "a question"}, func(chunk string) error {
		streamed += chunk
		return nil
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if result.Reply != "the answer" || streamed != "the answer" {
		t.Errorf("Reply = %q, streamed = %q", result.Reply, streamed)
	}
	if result.FromCache {
		t.Error("first turn reported as cached")
	}
	if sess.State() != session.StateCompleted {
		t.Errorf("State() = %v, want completed", sess.State())
	}

	msgs := sess.Log.Messages()
	if len(msgs) != 2 {
		t.Fatalf("log has %d messages, want user + assistant", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Text() != "a question" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Text() != "the answer" {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
	if msgs[1].ModelUsed != "deepseek-r1-distill-llama-70b" {
		t.Errorf("ModelUsed = %q", msgs[1].ModelUsed)
	}
}

func TestCacheHitBypassesProvider(t *testing.T) {
	mock := testutil.NewMockProvider("cached eventually")
	sess := newTestSession(t, mock, session.Settings{ModelID: "deepseek-r1-distill-llama-70b"})
	ctx := context.Background()

	if _, err := sess.ProcessTurn(ctx, session.Turn{Text: "same question"}, discard); err != nil {
		t.Fatalf("first turn error = %v", err)
	}
	if mock.Calls != 1 {
		t.Fatalf("Calls = %d after first turn, want 1", mock.Calls)
	}

	// Clearing the log restores the exact assembly of the first turn, so
	// the fingerprint matches again.
	sess.Log.Clear()

	var streamed string
	result, err := sess.ProcessTurn(ctx, session.Turn{Text: "same question"}, func(chunk string) error {
		streamed += chunk
		return nil
	})
	if err != nil {
		t.Fatalf("second turn error = %v", err)
	}

	if !result.FromCache {
		t.Error("identical request not served from cache")
	}
	if mock.Calls != 1 {
		t.Errorf("Calls = %d, want 1 (cache hit must not dispatch)", mock.Calls)
	}
	if streamed != "cached eventually" {
		t.Errorf("streamed = %q, cached text not replayed through callback", streamed)
	}
	// The cached turn still lands in the log.
	if sess.Log.Len() != 2 {
		t.Errorf("log has %d messages after cached turn, want 2", sess.Log.Len())
	}
}

func TestDifferentSettingsMissCache(t *testing.T) {
	mock := testutil.NewMockProvider("reply")
	sess := newTestSession(t, mock, session.Settings{ModelID: "deepseek-r1-distill-llama-70b", Temperature: 0.7})
	ctx := context.Background()

	if _, err := sess.ProcessTurn(ctx, session.Turn{Text: "q"}, discard); err != nil {
		t.Fatalf("first turn error = %v", err)
	}
	sess.Log.Clear()
	sess.Settings.Temperature = 0.2

	if _, err := sess.ProcessTurn(ctx, session.Turn{Text: "q"}, discard); err != nil {
		t.Fatalf("second turn error = %v", err)
	}
	if mock.Calls != 2 {
		t.Errorf("Calls = %d, want 2 (changed temperature must miss)", mock.Calls)
	}
}

func TestFailedTurnLeavesGap(t *testing.T) {
	mock := testutil.NewMockProvider("")
	mock.Err = fmt.Errorf("boom: %w", model.ErrTransport)
	sess := newTestSession(t, mock, session.Settings{ModelID: "deepseek-r1-distill-llama-70b"})

	_, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "doomed"}, discard)
	if !errors.Is(err, model.ErrTransport) {
		t.Fatalf("ProcessTurn() error = %v, want ErrTransport", err)
	}
	if sess.State() != session.StateFailed {
		t.Errorf("State() = %v, want failed", sess.State())
	}

	// The user message stays; no assistant message is fabricated.
	msgs := sess.Log.Messages()
	if len(msgs) != 1 || msgs[0].Role != model.RoleUser {
		t.Errorf("log after failure = %+v, want only the user message", msgs)
	}

	// A failed state does not block the next turn.
	mock.Err = nil
	mock.Reply = "recovered"
	if _, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "again"}, discard); err != nil {
		t.Errorf("turn after failure error = %v", err)
	}
}

func TestCapacityErrorShrinksNextWindow(t *testing.T) {
	mock := testutil.NewMockProvider("ok")
	sess := newTestSession(t, mock, session.Settings{ModelID: "deepseek-r1-distill-llama-70b"})
	ctx := context.Background()

	// Build up more history than half the budget.
	for i := 0; i < 6; i++ {
		if _, err := sess.ProcessTurn(ctx, session.Turn{Text: fmt.Sprintf("turn %d", i)}, discard); err != nil {
			t.Fatalf("setup turn %d error = %v", i, err)
		}
	}

	mock.Err = fmt.Errorf("payload too large: %w", model.ErrCapacity)
	if _, err := sess.ProcessTurn(ctx, session.Turn{Text: "too big"}, discard); !errors.Is(err, model.ErrCapacity) {
		t.Fatalf("capacity turn error = %v, want ErrCapacity", err)
	}

	mock.Err = nil
	if _, err := sess.ProcessTurn(ctx, session.Turn{Text: "after shrink"}, discard); err != nil {
		t.Fatalf("post-shrink turn error = %v", err)
	}

	// Budget 10 halves to 5: 1 system + 5 history + 1 current.
	if got := len(mock.LastRequest.Messages); got != 7 {
		t.Errorf("post-shrink request has %d messages, want 7", got)
	}
}

func TestVisionDispatch(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 30), uint8(y * 30), 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	t.Run("vision model", func(t *testing.T) {
		mock := testutil.NewMockProvider("I see it")
		sess := newTestSession(t, mock, session.Settings{ModelID: "meta-llama/llama-4-scout-17b-16e-instruct"})

		if _, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "what is this?", Image: buf.Bytes()}, discard); err != nil {
			t.Fatalf("ProcessTurn() error = %v", err)
		}
		if mock.ImageCalls != 1 {
			t.Errorf("ImageCalls = %d, want 1", mock.ImageCalls)
		}
		last := mock.LastRequest.Messages[len(mock.LastRequest.Messages)-1]
		if !last.IsMultimodal() {
			t.Error("final message not multimodal")
		}
		if !sess.Log.Messages()[0].HasImage() {
			t.Error("logged user message lost the image")
		}
	})

	t.Run("non-vision model falls back to text", func(t *testing.T) {
		mock := testutil.NewMockProvider("text only")
		sess := newTestSession(t, mock, session.Settings{ModelID: "deepseek-r1-distill-llama-70b"})

		if _, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "what is this?", Image: buf.Bytes()}, discard); err != nil {
			t.Fatalf("ProcessTurn() error = %v", err)
		}
		if mock.ImageCalls != 0 {
			t.Errorf("ImageCalls = %d, want 0", mock.ImageCalls)
		}
		last := mock.LastRequest.Messages[len(mock.LastRequest.Messages)-1]
		if last.IsMultimodal() {
			t.Error("non-vision request carries image parts")
		}
	})
}

func TestBadAttachmentAbortsBeforeLog(t *testing.T) {
	mock := testutil.NewMockProvider("never")
	sess := newTestSession(t, mock, session.Settings{ModelID: "meta-llama/llama-4-scout-17b-16e-instruct"})

	_, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "look", Image: []byte("not an image")}, discard)

	var attachErr *model.AttachmentError
	if !errors.As(err, &attachErr) {
		t.Fatalf("ProcessTurn() error = %v, want AttachmentError", err)
	}
	if !errors.Is(err, model.ErrUnsupportedFormat) {
		t.Errorf("error does not wrap ErrUnsupportedFormat: %v", err)
	}
	if attachErr.Remediation == "" {
		t.Error("AttachmentError without remediation")
	}
	if sess.Log.Len() != 0 {
		t.Errorf("log has %d messages after attachment failure, want 0", sess.Log.Len())
	}
	if mock.Calls != 0 {
		t.Errorf("Calls = %d, want 0", mock.Calls)
	}
}

func TestToolCallsIngestedAndReferenced(t *testing.T) {
	mock := testutil.NewMockProvider("searched for you")
	mock.ToolCalls = []model.RawToolCall{
		{
			Type:   "search",
			Input:  json.RawMessage(`{"query": "tides"}`),
			Output: json.RawMessage(`"high at noon"`),
		},
	}
	sess := newTestSession(t, mock, session.Settings{ModelID: "compound-beta", EnableAgentic: true})

	result, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "when is high tide?"}, discard)
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	if result.ToolCalls != 1 {
		t.Errorf("result.ToolCalls = %d, want 1", result.ToolCalls)
	}
	if sess.Store.Len() != 1 {
		t.Errorf("Store.Len() = %d, want 1", sess.Store.Len())
	}

	reply := sess.Log.Messages()[1]
	if len(reply.ToolResultRefs) != 1 {
		t.Fatalf("ToolResultRefs = %d, want 1", len(reply.ToolResultRefs))
	}
	if reply.ToolResultRefs[0] != sess.Store.Records()[0].ID {
		t.Error("assistant message does not reference the stored record")
	}

	// The next turn's system message folds the digest in.
	if _, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "thanks"}, discard); err != nil {
		t.Fatalf("second turn error = %v", err)
	}
	system := mock.LastRequest.Messages[0]
	if !bytes.Contains([]byte(system.Content), []byte("tides")) {
		t.Errorf("system message missing tool digest:\n%s", system.Content)
	}
}

func TestSwitchModelPreservesContext(t *testing.T) {
	mock := testutil.NewMockProvider("reply")
	mock.ToolCalls = []model.RawToolCall{
		{Type: "search", Input: json.RawMessage(`{"query": "x"}`), Output: json.RawMessage(`"y"`)},
	}
	sess := newTestSession(t, mock, session.Settings{ModelID: "compound-beta", EnableAgentic: true})

	if _, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "q"}, discard); err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	profile := sess.SwitchModel("claude-sonnet-4-5-20250929")
	if profile.Provider != "anthropic" {
		t.Errorf("switched profile provider = %q", profile.Provider)
	}
	if sess.Log.Len() != 2 {
		t.Errorf("log has %d messages after switch, want 2", sess.Log.Len())
	}
	if sess.Store.Len() != 1 {
		t.Errorf("store has %d records after switch, want 1", sess.Store.Len())
	}
}

func TestUnknownModelFallsBackToDefault(t *testing.T) {
	mock := testutil.NewMockProvider("reply")
	sess := newTestSession(t, mock, session.Settings{ModelID: "no-such-model"})

	if got := sess.Profile().ID; got != model.DefaultProfile.ID {
		t.Errorf("Profile().ID = %q, want default", got)
	}
	if _, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "q"}, discard); err != nil {
		t.Errorf("turn with unknown model error = %v", err)
	}
	if mock.LastRequest.Model != model.DefaultProfile.ID {
		t.Errorf("dispatched model = %q, want default", mock.LastRequest.Model)
	}
}

func TestProcessTurnRejectsReentry(t *testing.T) {
	mock := testutil.NewMockProvider("")
	var sess *session.Session
	mock.ChatFunc = func(ctx context.Context, req model.ChatRequest, cb model.StreamCallback) (*model.ChatResult, error) {
		if _, err := sess.ProcessTurn(ctx, session.Turn{Text: "nested"}, discard); !errors.Is(err, session.ErrTurnInFlight) {
			t.Errorf("nested ProcessTurn() error = %v, want ErrTurnInFlight", err)
		}
		return &model.ChatResult{Text: "outer"}, nil
	}
	sess = newTestSession(t, mock, session.Settings{ModelID: "deepseek-r1-distill-llama-70b"})

	if _, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "outer"}, discard); err != nil {
		t.Fatalf("outer ProcessTurn() error = %v", err)
	}
}

func TestCloseClearsState(t *testing.T) {
	mock := testutil.NewMockProvider("reply")
	mock.ToolCalls = []model.RawToolCall{
		{Type: "search", Input: json.RawMessage(`{"query": "x"}`), Output: json.RawMessage(`"y"`)},
	}
	sess := newTestSession(t, mock, session.Settings{ModelID: "compound-beta"})

	if _, err := sess.ProcessTurn(context.Background(), session.Turn{Text: "q"}, discard); err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	sess.Close()

	if sess.Log.Len() != 0 || sess.Store.Len() != 0 {
		t.Errorf("Close() left log=%d store=%d", sess.Log.Len(), sess.Store.Len())
	}
	if sess.State() != session.StateIdle {
		t.Errorf("State() after Close = %v, want idle", sess.State())
	}
}
