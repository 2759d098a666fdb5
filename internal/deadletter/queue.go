// Package deadletter keeps rejected raw records together with the
// violations that rejected them.
package deadletter

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sawpanic/tickgate/internal/tick"
)

// Entry is one rejected record
type Entry struct {
	ID         uuid.UUID        `json:"id"`
	Raw        tick.Raw         `json:"raw"`
	Violations []tick.Violation `json:"violations"`
	RejectedAt time.Time        `json:"rejected_at"`
}

// Queue is an unbounded append-only list, safe for concurrent use
type Queue struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Append stores a copy of raw and violations and returns the new entry
func (q *Queue) Append(raw tick.Raw, violations []tick.Violation, at time.Time) Entry {
	entry := Entry{
		ID:         uuid.New(),
		Raw:        copyRaw(raw),
		Violations: append([]tick.Violation(nil), violations...),
		RejectedAt: at,
	}

	q.mu.Lock()
	q.entries = append(q.entries, entry)
	q.mu.Unlock()

	return entry
}

// Len returns the number of entries
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Entries returns a copy of all entries in arrival order
func (q *Queue) Entries() []Entry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Since returns entries appended at or after index offset, for paging
func (q *Queue) Since(offset int) []Entry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(q.entries) {
		return nil
	}
	out := make([]Entry, len(q.entries)-offset)
	copy(out, q.entries[offset:])
	return out
}

// copyRaw is shallow; values in a raw record are scalars
func copyRaw(raw tick.Raw) tick.Raw {
	if raw == nil {
		return nil
	}
	out := make(tick.Raw, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
