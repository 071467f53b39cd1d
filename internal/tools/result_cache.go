package tools

import (
	"fmt"
	"regexp"
	"sync"
)

// resultHandlePattern validates a result handle's id component, matching
// the viz tool's validation regex (spec §6): [A-Za-z0-9._-]+.
var resultHandlePattern = regexp.MustCompile(`^result_[A-Za-z0-9._-]+\.json$`)

// ResultCache holds the last query + rows for each tool_call_id so
// downstream tools (viz) and streaming events can reference a prior
// execute_sql result by its stable handle without re-running the query.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]CachedResult
}

// CachedResult is one stored execute_sql outcome.
type CachedResult struct {
	Query string
	Rows  []map[string]any
}

// NewResultCache returns an empty cache, scoped to a single orchestrator
// run.
func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]CachedResult)}
}

// Handle returns the result_<id>.json handle for a tool_call_id.
func Handle(toolCallID string) string {
	return fmt.Sprintf("result_%s.json", toolCallID)
}

// ValidHandle reports whether file matches the exact handle shape the viz
// tool requires before it will read a referenced result.
func ValidHandle(file string) bool {
	return resultHandlePattern.MatchString(file)
}

// Store records a result under its tool_call_id handle.
func (c *ResultCache) Store(toolCallID, query string, rows []map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Handle(toolCallID)] = CachedResult{Query: query, Rows: rows}
}

// Get fetches the cached result for a handle (e.g. "result_abc123.json").
func (c *ResultCache) Get(handle string) (CachedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[handle]
	return r, ok
}
