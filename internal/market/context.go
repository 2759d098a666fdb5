package market

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sawpanic/tickgate/internal/tick"
)

// State is a point-in-time copy of a symbol's context
type State struct {
	Symbol         string              `json:"symbol"`
	LastPrice      decimal.NullDecimal `json:"last_price"`
	LastTimestamp  time.Time           `json:"last_timestamp"`
	LastSequenceID int64               `json:"last_sequence_id"`
	HasSequence    bool                `json:"has_sequence"`
	TickCount      int64               `json:"tick_count"`
}

// Context is the per-symbol memory of the last accepted tick
type Context struct {
	mu    sync.Mutex
	state State
}

func newContext(symbol string) *Context {
	return &Context{state: State{Symbol: symbol}}
}

// Symbol returns the symbol this context tracks
func (c *Context) Symbol() string {
	return c.state.Symbol
}

// Snapshot returns a copy of the current state
func (c *Context) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastPrice returns the last accepted price and whether one exists
func (c *Context) LastPrice() (decimal.Decimal, bool) {
	s := c.Snapshot()
	return s.LastPrice.Decimal, s.LastPrice.Valid
}

// TickCount returns the number of accepted ticks
func (c *Context) TickCount() int64 {
	return c.Snapshot().TickCount
}

// Evaluate runs fn against the current state while holding the context
// lock. When fn returns true the tick is accepted into the context before
// the lock is released, so read-evaluate-update is atomic per symbol.
func (c *Context) Evaluate(t tick.Tick, fn func(State) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !fn(c.state) {
		return false
	}
	c.accept(t)
	return true
}

// Accept records t as the latest accepted tick
func (c *Context) Accept(t tick.Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accept(t)
}

func (c *Context) accept(t tick.Tick) {
	c.state.LastPrice = decimal.NewNullDecimal(t.Price)
	c.state.LastTimestamp = t.Timestamp
	if t.HasSequence() {
		c.state.LastSequenceID = t.Sequence()
		c.state.HasSequence = true
	}
	c.state.TickCount++
}
