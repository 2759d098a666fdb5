package market

import (
	"sort"
	"sync"
)

// Registry owns exactly one Context per symbol for the lifetime of an engine
type Registry struct {
	mu       sync.RWMutex
	contexts map[string]*Context
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		contexts: make(map[string]*Context),
	}
}

// Get returns the context for symbol if one has been created
func (r *Registry) Get(symbol string) (*Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contexts[symbol]
	return c, ok
}

// GetOrCreate returns the context for symbol, creating it on first sight.
// The boolean is true when this call created it.
func (r *Registry) GetOrCreate(symbol string) (*Context, bool) {
	r.mu.RLock()
	c, exists := r.contexts[symbol]
	r.mu.RUnlock()

	if exists {
		return c, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if c, exists := r.contexts[symbol]; exists {
		return c, false
	}

	c = newContext(symbol)
	r.contexts[symbol] = c
	return c, true
}

// Len returns the number of tracked symbols
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}

// Snapshots returns the state of every context sorted by symbol
func (r *Registry) Snapshots() []State {
	r.mu.RLock()
	contexts := make([]*Context, 0, len(r.contexts))
	for _, c := range r.contexts {
		contexts = append(contexts, c)
	}
	r.mu.RUnlock()

	states := make([]State, 0, len(contexts))
	for _, c := range contexts {
		states = append(states, c.Snapshot())
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Symbol < states[j].Symbol
	})
	return states
}
