package market

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tickgate/internal/tick"
)

func sampleTick(price string, seq *int64) tick.Tick {
	return tick.Tick{
		Symbol:     "AAPL",
		Price:      decimal.RequireFromString(price),
		Timestamp:  time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC),
		SequenceID: seq,
		Exchange:   tick.DefaultExchange,
	}
}

func seqPtr(n int64) *int64 { return &n }

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("AAPL")
	assert.False(t, ok)

	c1, created := r.GetOrCreate("AAPL")
	require.NotNil(t, c1)
	assert.True(t, created)

	c2, created := r.GetOrCreate("AAPL")
	assert.False(t, created)
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get("AAPL")
	require.True(t, ok)
	assert.Same(t, c1, got)
	assert.Equal(t, "AAPL", got.Symbol())

	state := c1.Snapshot()
	assert.Equal(t, "AAPL", state.Symbol)
	assert.False(t, state.LastPrice.Valid)
	assert.False(t, state.HasSequence)
	assert.Equal(t, int64(0), state.TickCount)
}

func TestRegistry_ConcurrentCreateYieldsOneContext(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	got := make([]*Context, 32)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = r.GetOrCreate("BTCUSD")
		}(i)
	}
	wg.Wait()

	for _, c := range got {
		assert.Same(t, got[0], c)
	}
	assert.Equal(t, 1, r.Len())
}

func TestContext_Accept(t *testing.T) {
	c := newContext("AAPL")

	c.Accept(sampleTick("150.0000", seqPtr(1)))
	c.Accept(sampleTick("151.0000", nil))

	state := c.Snapshot()
	assert.True(t, state.LastPrice.Decimal.Equal(decimal.RequireFromString("151")))
	assert.Equal(t, int64(2), state.TickCount)
	assert.True(t, state.HasSequence)
	assert.Equal(t, int64(1), state.LastSequenceID, "tick without sequence keeps the last one")

	price, ok := c.LastPrice()
	assert.True(t, ok)
	assert.Equal(t, "151.0000", price.StringFixed(4))
	assert.Equal(t, int64(2), c.TickCount())
}

func TestContext_EvaluateOnlyAcceptsOnTrue(t *testing.T) {
	c := newContext("AAPL")

	accepted := c.Evaluate(sampleTick("150", nil), func(State) bool { return false })
	assert.False(t, accepted)
	assert.Equal(t, int64(0), c.TickCount())

	var seen State
	accepted = c.Evaluate(sampleTick("150", nil), func(s State) bool {
		seen = s
		return true
	})
	assert.True(t, accepted)
	assert.False(t, seen.LastPrice.Valid, "callback sees state before the update")
	assert.Equal(t, int64(1), c.TickCount())
}

func TestRegistry_Snapshots(t *testing.T) {
	r := NewRegistry()
	for _, s := range []string{"MSFT", "AAPL", "GOOGL"} {
		r.GetOrCreate(s)
	}

	states := r.Snapshots()
	require.Len(t, states, 3)
	for i, want := range []string{"AAPL", "GOOGL", "MSFT"} {
		assert.Equal(t, want, states[i].Symbol, fmt.Sprintf("position %d", i))
	}
}
