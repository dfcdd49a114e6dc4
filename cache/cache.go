// Package cache memoizes provider calls keyed by a normalized request
// fingerprint. A hit is replayed through the same streaming callback a
// live call uses, so callers cannot tell them apart except by latency.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"metanoia/model"
)

// CachedResponse is the stored outcome of one provider call.
type CachedResponse struct {
	Text      string
	ToolCalls []model.RawToolCall
}

// Key derives the deterministic cache key from everything that influences
// a provider response: model, the exact assembled message list, and the
// pass-through generation parameters. Assembly is deterministic, so equal
// requests fingerprint equally.
func Key(modelID string, msgs []model.ProviderMessage, temperature float64, maxTokens int) string {
	payload, err := json.Marshal(struct {
		Model       string                  `json:"model"`
		Messages    []model.ProviderMessage `json:"messages"`
		Temperature float64                 `json:"temperature"`
		MaxTokens   int                     `json:"max_tokens"`
	}{modelID, msgs, temperature, maxTokens})
	if err != nil {
		// Wire messages marshal from plain structs; this cannot fail
		// for any value the assembler produces.
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ResponseCache is a session-scoped key/value store with no eviction.
// Unbounded growth within a session is a documented limitation, accepted
// rather than silently capped. The mutex exists so a future multi-session
// sharing mode only needs session-prefixed keys, not a redesign.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]CachedResponse
}

// New returns an empty cache.
func New() *ResponseCache {
	return &ResponseCache{entries: make(map[string]CachedResponse)}
}

// Get returns the stored response for key, if any.
func (c *ResponseCache) Get(key string) (CachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.entries[key]
	return resp, ok
}

// Put stores the response for key, replacing any previous entry.
func (c *ResponseCache) Put(key string, resp CachedResponse) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = resp
}

// Len returns the number of cached responses.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
