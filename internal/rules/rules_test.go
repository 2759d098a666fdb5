package rules

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tickgate/internal/market"
	"github.com/sawpanic/tickgate/internal/tick"
)

var now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func candidate(price string, ts time.Time, seq *int64) tick.Tick {
	return tick.Tick{
		Symbol:     "AAPL",
		Price:      decimal.RequireFromString(price),
		Timestamp:  ts,
		SequenceID: seq,
		Exchange:   "NSDQ",
	}
}

func seq(n int64) *int64 { return &n }

func withLast(price string, lastSeq *int64) market.State {
	s := market.State{
		Symbol:    "AAPL",
		LastPrice: decimal.NewNullDecimal(decimal.RequireFromString(price)),
		TickCount: 1,
	}
	if lastSeq != nil {
		s.LastSequenceID = *lastSeq
		s.HasSequence = true
	}
	return s
}

func TestPriceBounds(t *testing.T) {
	rule := PriceBounds{Max: decimal.NewFromInt(1_000_000)}

	testCases := []struct {
		price string
		ok    bool
	}{
		{"0.0001", true},
		{"150", true},
		{"1000000", true},
		{"1000000.0001", false},
		{"0", false},
		{"-1", false},
	}

	for _, tc := range testCases {
		t.Run(tc.price, func(t *testing.T) {
			v := rule.Evaluate(candidate(tc.price, now, nil), market.State{}, now)
			if tc.ok {
				assert.Nil(t, v)
				return
			}
			require.NotNil(t, v)
			assert.Equal(t, RulePriceBounds, v.Rule)
			assert.True(t, v.Hard())
		})
	}
}

func TestPriceMovement(t *testing.T) {
	rule := PriceMovement{Threshold: decimal.RequireFromString("0.30")}

	t.Run("no history", func(t *testing.T) {
		assert.Nil(t, rule.Evaluate(candidate("1", now, nil), market.State{}, now))
	})

	t.Run("within threshold", func(t *testing.T) {
		assert.Nil(t, rule.Evaluate(candidate("120", now, nil), withLast("150", nil), now))
		assert.Nil(t, rule.Evaluate(candidate("195", now, nil), withLast("150", nil), now), "exactly 30% passes")
	})

	t.Run("drop", func(t *testing.T) {
		v := rule.Evaluate(candidate("75", now, nil), withLast("150", nil), now)
		require.NotNil(t, v)
		assert.Equal(t, RulePriceMovement, v.Rule)
		assert.Equal(t, tick.SeveritySoft, v.Severity)
		assert.Contains(t, v.Message, "drop")
		assert.Contains(t, v.Message, "50.00%")
		assert.Contains(t, v.Message, "flash crash")
	})

	t.Run("spike", func(t *testing.T) {
		v := rule.Evaluate(candidate("300", now, nil), withLast("150", nil), now)
		require.NotNil(t, v)
		assert.Contains(t, v.Message, "spike")
		assert.Contains(t, v.Message, "100.00%")
	})
}

func TestRelativeChange(t *testing.T) {
	got := RelativeChange(decimal.NewFromInt(150), decimal.NewFromInt(75))
	assert.True(t, got.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, RelativeChange(decimal.Zero, decimal.NewFromInt(10)).IsZero())
}

func TestFutureTimestamp(t *testing.T) {
	rule := FutureTimestamp{Tolerance: 5 * time.Second}

	assert.Nil(t, rule.Evaluate(candidate("1", now.Add(5*time.Second), nil), market.State{}, now))
	assert.Nil(t, rule.Evaluate(candidate("1", now.Add(-time.Hour), nil), market.State{}, now))

	v := rule.Evaluate(candidate("1", now.Add(time.Minute), nil), market.State{}, now)
	require.NotNil(t, v)
	assert.Equal(t, RuleTemporal, v.Rule)
	assert.True(t, v.Hard())
	assert.Contains(t, v.Message, "future timestamp")
}

func TestStaleness(t *testing.T) {
	rule := Staleness{MaxAge: 2 * time.Minute}

	assert.Nil(t, rule.Evaluate(candidate("1", now.Add(-2*time.Minute), nil), market.State{}, now))
	assert.Nil(t, rule.Evaluate(candidate("1", now.Add(2*time.Second), nil), market.State{}, now))

	v := rule.Evaluate(candidate("1", now.Add(-10*time.Minute), nil), market.State{}, now)
	require.NotNil(t, v)
	assert.Equal(t, RuleStaleness, v.Rule)
	assert.Equal(t, tick.SeveritySoft, v.Severity)
	assert.Contains(t, v.Message, "10m0s old")
}

func TestSequence(t *testing.T) {
	rule := Sequence{}

	t.Run("first sequenced tick", func(t *testing.T) {
		state := withLast("150", nil)
		assert.Nil(t, rule.Evaluate(candidate("150", now, seq(9)), state, now))
		assert.Nil(t, rule.Advise(candidate("150", now, seq(9)), state))
	})

	t.Run("unsequenced tick", func(t *testing.T) {
		state := withLast("150", seq(5))
		assert.Nil(t, rule.Evaluate(candidate("150", now, nil), state, now))
		assert.Nil(t, rule.Advise(candidate("150", now, nil), state))
	})

	t.Run("next in order", func(t *testing.T) {
		state := withLast("150", seq(5))
		assert.Nil(t, rule.Evaluate(candidate("150", now, seq(6)), state, now))
		assert.Nil(t, rule.Advise(candidate("150", now, seq(6)), state))
	})

	t.Run("duplicate and reorder", func(t *testing.T) {
		state := withLast("150", seq(5))
		for _, n := range []int64{5, 4, 0} {
			v := rule.Evaluate(candidate("150", now, seq(n)), state, now)
			require.NotNil(t, v, "seq %d", n)
			assert.Equal(t, RuleSequence, v.Rule)
			assert.Equal(t, tick.SeveritySoft, v.Severity)
		}
	})

	t.Run("gap is advisory", func(t *testing.T) {
		state := withLast("150", seq(1))
		assert.Nil(t, rule.Evaluate(candidate("150", now, seq(3)), state, now))

		a := rule.Advise(candidate("150", now, seq(3)), state)
		require.NotNil(t, a)
		assert.Equal(t, SignalSequenceGap, a.Signal)
		assert.Equal(t, "sequence gap: expected 2, got 3 (1 missing)", a.Message)
	})
}

func TestDefaultPipeline_Order(t *testing.T) {
	p := DefaultPipeline(tick.DefaultParseOptions(), DefaultThresholds())
	assert.Equal(t, []string{
		RulePriceBounds,
		RulePriceMovement,
		RuleTemporal,
		RuleStaleness,
		RuleSequence,
	}, p.Rules())
}

func TestPipeline_RunsEveryRule(t *testing.T) {
	p := DefaultPipeline(tick.DefaultParseOptions(), DefaultThresholds())

	// flash crash, stale and duplicated at once
	out := p.Run(candidate("75", now.Add(-10*time.Minute), seq(5)), withLast("150", seq(5)), now)
	require.Len(t, out.Violations, 3)
	assert.Equal(t, RulePriceMovement, out.Violations[0].Rule)
	assert.Equal(t, RuleStaleness, out.Violations[1].Rule)
	assert.Equal(t, RuleSequence, out.Violations[2].Rule)
	assert.Empty(t, out.Advisories)

	// hard failures do not stop later rules
	out = p.Run(candidate("0", now.Add(time.Minute), nil), market.State{}, now)
	require.Len(t, out.Violations, 2)
	assert.Equal(t, RulePriceBounds, out.Violations[0].Rule)
	assert.Equal(t, RuleTemporal, out.Violations[1].Rule)
}

func TestPipeline_Schema(t *testing.T) {
	p := DefaultPipeline(tick.DefaultParseOptions(), DefaultThresholds())

	tk, v := p.Schema(tick.Raw{
		tick.FieldSymbol:    "AAPL",
		tick.FieldPrice:     "invalid",
		tick.FieldTimestamp: now.Format(time.RFC3339),
	})
	assert.Nil(t, tk)
	require.NotNil(t, v)
	assert.Equal(t, tick.MsgInvalidPrice, v.Message)
}
