package agent

import (
	"sync"

	"sqlsaber/internal/llm"
)

// History is the orchestrator's per-instance conversation log (spec
// §4.6 state: "conversation: created per orchestrator instance, cleared
// on explicit reset"). Messages are only appended at a run's commit
// point, never mid-run, so a cancelled run that committed partial tool
// results leaves History in a consistent, resumable state.
type History struct {
	mu       sync.Mutex
	messages []llm.Message
}

// NewHistory returns an empty conversation log.
func NewHistory() *History {
	return &History{}
}

// Snapshot returns a copy of the committed messages, safe for the caller
// to append to without mutating History.
func (h *History) Snapshot() []llm.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Commit appends newMessages to the log.
func (h *History) Commit(newMessages []llm.Message) {
	if len(newMessages) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, newMessages...)
}

// Clear empties the log (explicit reset).
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// Len returns the number of committed messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}
