package state

import (
	"sync"

	"github.com/atomicstack/vault-browser/internal/tree"
)

const defaultHistoryLimit = 100

// Entry is one visited location. It carries the full node so a replay does
// not need to fetch it again.
type Entry struct {
	Path tree.Path
	Node tree.Node
}

// History is a back/forward stack of visited directories.
type History struct {
	mu      sync.Mutex
	entries []Entry
	index   int
	limit   int
}

// NewHistory creates a history keeping at most limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &History{index: -1, limit: limit}
}

// Push records a new location and drops any forward entries.
func (h *History) Push(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], e)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]Entry(nil), h.entries[over:]...)
	}
	h.index = len(h.entries) - 1
}

// Back steps one entry back and returns it.
func (h *History) Back() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index <= 0 {
		return Entry{}, false
	}
	h.index--
	return h.entries[h.index], true
}

// Forward steps one entry forward and returns it.
func (h *History) Forward() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index+1 >= len(h.entries) {
		return Entry{}, false
	}
	h.index++
	return h.entries[h.index], true
}

// Current returns the entry at the cursor.
func (h *History) Current() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		return Entry{}, false
	}
	return h.entries[h.index], true
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
