package director

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
)

// Entry records one sequence invocation.
type Entry struct {
	Sequence   string         `json:"sequence"`
	Input      string         `json:"input"`
	DocumentID string         `json:"document_id,omitempty"`
	Success    bool           `json:"success"`
	Valid      bool           `json:"valid"`
	Error      string         `json:"error,omitempty"`
	Steps      []builder.Step `json:"steps,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// History is an append-only construction trace. It is diagnostic only and
// safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []Entry
}

// NewHistory creates an empty history.
func NewHistory() *History { return &History{} }

func (h *History) append(e Entry) {
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
}

// Entries returns a copy of every entry in invocation order.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		e.Steps = append([]builder.Step(nil), e.Steps...)
		out[i] = e
	}
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
