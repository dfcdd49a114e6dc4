package agentic_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"metanoia/agentic"
	"metanoia/model"
)

func searchCall(query string) model.RawToolCall {
	return model.RawToolCall{
		Type:  "search",
		Input: json.RawMessage(fmt.Sprintf(`{"query": %q}`, query)),
		Output: json.RawMessage(fmt.Sprintf(
			`{"results": [{"title": "Result", "content": "about %s", "url": "https://example.com"}]}`, query)),
	}
}

func codeCall(code, result string) model.RawToolCall {
	return model.RawToolCall{
		Type:   "code_execution",
		Input:  json.RawMessage(fmt.Sprintf(`{"code": %q}`, code)),
		Output: json.RawMessage(fmt.Sprintf(`{"result": %q}`, result)),
	}
}

func TestIngestSkipsMalformedEntries(t *testing.T) {
	store := agentic.NewStore(nil)

	batch := []model.RawToolCall{
		searchCall("first"),
		{Type: "telepathy"}, // unknown type
		codeCall("1+1", "2"),
	}

	refs := store.Ingest(batch)

	// Stored plus skipped must account for the whole batch.
	if len(refs) != 2 {
		t.Errorf("Ingest() stored %d, want 2", len(refs))
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
}

func TestIngestEmptyBatch(t *testing.T) {
	store := agentic.NewStore(nil)
	if refs := store.Ingest(nil); len(refs) != 0 {
		t.Errorf("Ingest(nil) = %d refs, want 0", len(refs))
	}
}

func TestRecentOrderAndBound(t *testing.T) {
	store := agentic.NewStore(nil)
	for i := 1; i <= 5; i++ {
		store.Ingest([]model.RawToolCall{searchCall(fmt.Sprintf("query %d", i))})
	}

	recent := store.Recent(agentic.KindSearch, 3)
	if len(recent) != 3 {
		t.Fatalf("Recent() = %d records, want 3", len(recent))
	}
	// Most recent first.
	for i, want := range []string{"query 5", "query 4", "query 3"} {
		if recent[i].Query != want {
			t.Errorf("Recent()[%d].Query = %q, want %q", i, recent[i].Query, want)
		}
	}
}

func TestDigestRendersBothKinds(t *testing.T) {
	store := agentic.NewStore(nil)
	store.Ingest([]model.RawToolCall{
		searchCall("go concurrency"),
		codeCall("print('hi')", "hi"),
	})

	digest := store.Digest()

	if !strings.Contains(digest, "## Web search results:") {
		t.Error("digest missing search section")
	}
	if !strings.Contains(digest, "go concurrency") {
		t.Error("digest missing search query")
	}
	if !strings.Contains(digest, "## Code executions:") {
		t.Error("digest missing code section")
	}
	if !strings.Contains(digest, "print('hi')") {
		t.Error("digest missing executed code")
	}
}

func TestDigestBoundedPerKind(t *testing.T) {
	store := agentic.NewStore(nil)
	for i := 1; i <= agentic.DigestPerKind+2; i++ {
		store.Ingest([]model.RawToolCall{searchCall(fmt.Sprintf("q%d", i))})
	}

	digest := store.Digest()
	if got := strings.Count(digest, "### Search"); got != agentic.DigestPerKind {
		t.Errorf("digest holds %d searches, want %d", got, agentic.DigestPerKind)
	}
	// The oldest entries fall out of the digest but stay in the store.
	if strings.Contains(digest, "q1") {
		t.Error("digest includes an entry older than the bound")
	}
	if store.Len() != agentic.DigestPerKind+2 {
		t.Errorf("Len() = %d, want %d", store.Len(), agentic.DigestPerKind+2)
	}
}

func TestDigestFallsBackToRawOutput(t *testing.T) {
	store := agentic.NewStore(nil)
	store.Ingest([]model.RawToolCall{{
		Type:   "search",
		Input:  json.RawMessage(`"weather today"`),
		Output: json.RawMessage(`"sunny, 20C"`),
	}})

	digest := store.Digest()
	if !strings.Contains(digest, "sunny, 20C") {
		t.Errorf("digest missing raw output fallback:\n%s", digest)
	}
}

func TestDigestEmptyStore(t *testing.T) {
	store := agentic.NewStore(nil)
	if digest := store.Digest(); digest != "" {
		t.Errorf("Digest() on empty store = %q, want empty", digest)
	}
}

func TestClear(t *testing.T) {
	store := agentic.NewStore(nil)
	store.Ingest([]model.RawToolCall{searchCall("q")})
	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", store.Len())
	}
}
