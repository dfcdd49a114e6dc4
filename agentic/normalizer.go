// Package agentic normalizes the tool-call payloads of agentic responses
// (web search, code execution) into canonical records and keeps them in a
// bounded, session-owned store. The store renders the textual digest that
// is folded into the system message so tool-derived knowledge survives a
// model switch.
package agentic

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"metanoia/model"
)

// Kind discriminates tool-result records.
type Kind string

const (
	KindSearch        Kind = "search"
	KindCodeExecution Kind = "code_execution"
)

// SearchItem is one result of a web search.
type SearchItem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Record is the canonical, fully-normalized form of one tool call. Which
// fields are populated depends on Kind: Query/Results for search, Code/
// Result/ErrorText for code execution. RawOutput preserves a bare-string
// output payload verbatim when the provider sent one.
type Record struct {
	ID        string
	Kind      Kind
	Query     string
	Results   []SearchItem
	Code      string
	Result    string
	ErrorText string
	RawOutput string
	Timestamp time.Time
}

// Title returns the display heading for the record.
func (r Record) Title() string {
	if r.Kind == KindSearch {
		return "Search: " + r.Query
	}
	return "Code execution"
}

// Normalize converts one raw tool-call payload into a Record. The raw
// input and output may each arrive as a JSON object or a bare JSON string
// (an observed provider inconsistency, tolerated in both directions): a
// string is wrapped as {"raw": <string>} before sub-fields are extracted,
// and query/code fall back to the wrapped raw value so a structured shape
// is never lost. Missing sub-fields default to empty.
func Normalize(raw model.RawToolCall) (Record, error) {
	kind := Kind(raw.Type)
	if kind != KindSearch && kind != KindCodeExecution {
		return Record{}, fmt.Errorf("unknown tool type %q", raw.Type)
	}

	input, err := decodePayload(raw.Input)
	if err != nil {
		return Record{}, fmt.Errorf("decode input: %w", err)
	}
	output, err := decodePayload(raw.Output)
	if err != nil {
		return Record{}, fmt.Errorf("decode output: %w", err)
	}

	rec := Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		RawOutput: stringField(output, "raw"),
		Timestamp: parseTimestamp(raw.Timestamp),
	}

	switch kind {
	case KindSearch:
		rec.Query = stringField(input, "query")
		if rec.Query == "" {
			rec.Query = stringField(input, "raw")
		}
		rec.Results = searchResults(output["results"])
	case KindCodeExecution:
		rec.Code = stringField(input, "code")
		if rec.Code == "" {
			rec.Code = stringField(input, "raw")
		}
		rec.Result = stringField(output, "result")
		rec.ErrorText = stringField(output, "error")
	}

	return rec, nil
}

// decodePayload tolerates both payload shapes: a JSON object decodes as
// is, a bare JSON string is wrapped as {"raw": <string>}. An absent
// payload decodes to an empty map.
func decodePayload(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return map[string]any{"raw": s}, nil
	}

	return nil, fmt.Errorf("payload is neither object nor string: %s", truncate(string(raw), 80))
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// searchResults extracts the result list from a search output payload,
// tolerating missing or oddly-shaped entries.
func searchResults(v any) []SearchItem {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]SearchItem, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, SearchItem{
			Title:   stringField(m, "title"),
			Content: stringField(m, "content"),
			URL:     stringField(m, "url"),
		})
	}
	return items
}

func parseTimestamp(s string) time.Time {
	if s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Now()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
