package agentic

import (
	"fmt"
	"log/slog"
	"strings"

	"metanoia/model"
)

// DigestPerKind is how many of the most recent records of each kind are
// rendered into the prompt digest. Older records stay in the store for
// display but are excluded from prompt injection.
const DigestPerKind = 3

// Store holds the session's normalized tool results, most-recent-first.
// It is owned by one session and cleared at teardown; no locking because a
// session is a single logical thread of control.
type Store struct {
	records []Record
	logger  *slog.Logger
}

// NewStore returns an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger.With("component", "agentic")}
}

// Ingest normalizes a batch of raw tool calls into the store. Malformed
// records are logged and skipped; one bad record never aborts the rest of
// the batch. Returns the IDs of the records that were stored, in input
// order, so stored plus skipped always equals the batch size.
func (s *Store) Ingest(batch []model.RawToolCall) []string {
	ids := make([]string, 0, len(batch))
	for _, raw := range batch {
		rec, err := Normalize(raw)
		if err != nil {
			s.logger.Warn("skipping malformed tool result", "type", raw.Type, "error", err)
			continue
		}
		s.add(rec)
		ids = append(ids, rec.ID)
	}
	return ids
}

func (s *Store) add(rec Record) {
	s.records = append([]Record{rec}, s.records...)
	s.logger.Debug("tool result stored", "kind", rec.Kind, "title", rec.Title())
}

// Records returns a copy of all records, most-recent-first, for display.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Recent returns up to n most recent records of the given kind.
func (s *Store) Recent(kind Kind, n int) []Record {
	var out []Record
	for _, rec := range s.records {
		if rec.Kind != kind {
			continue
		}
		out = append(out, rec)
		if len(out) == n {
			break
		}
	}
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// Clear empties the store. Only session teardown calls this.
func (s *Store) Clear() {
	s.records = nil
}

// Digest renders the most recent tool results (at most DigestPerKind per
// kind, most-recent-first) as readable markdown sections. This textual
// fold-in is the only form in which tool-derived knowledge reaches a
// provider, which is what lets it survive a model switch.
func (s *Store) Digest() string {
	var b strings.Builder

	searches := s.Recent(KindSearch, DigestPerKind)
	if len(searches) > 0 {
		b.WriteString("## Web search results:\n\n")
		for i, rec := range searches {
			fmt.Fprintf(&b, "### Search %d: %s\n\n", i+1, rec.Query)
			for _, item := range rec.Results {
				fmt.Fprintf(&b, "- **%s**\n  %s\n  Source: %s\n\n", orDefault(item.Title, "Untitled"), item.Content, orDefault(item.URL, "unknown"))
			}
			if len(rec.Results) == 0 && rec.RawOutput != "" {
				fmt.Fprintf(&b, "%s\n\n", rec.RawOutput)
			}
		}
	}

	executions := s.Recent(KindCodeExecution, DigestPerKind)
	if len(executions) > 0 {
		b.WriteString("## Code executions:\n\n")
		for i, rec := range executions {
			fmt.Fprintf(&b, "### Execution %d:\n\n```\n%s\n```\n\n**Result:**\n\n", i+1, rec.Code)
			switch {
			case rec.ErrorText != "":
				fmt.Fprintf(&b, "Error: %s\n\n", rec.ErrorText)
			case rec.Result != "":
				fmt.Fprintf(&b, "```\n%s\n```\n\n", rec.Result)
			default:
				fmt.Fprintf(&b, "%s\n\n", rec.RawOutput)
			}
		}
	}

	return b.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
