package stream

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sawpanic/tickgate/internal/tick"
)

// DemoOptions shapes the synthetic stream
type DemoOptions struct {
	Symbol      string
	Exchange    string
	BasePrice   decimal.Decimal
	NormalTicks int           // ticks around BasePrice before the anomalies
	Interval    time.Duration // spacing between normal ticks
	Start       time.Time
	Seed        int64
}

// DefaultDemoOptions returns five AAPL ticks around 150
func DefaultDemoOptions(start time.Time) DemoOptions {
	return DemoOptions{
		Symbol:      "AAPL",
		Exchange:    "NSDQ",
		BasePrice:   decimal.NewFromInt(150),
		NormalTicks: 5,
		Interval:    100 * time.Millisecond,
		Start:       start,
		Seed:        1,
	}
}

// DemoRecords builds the synthetic stream: normal ticks, then a 50% flash
// crash, a malformed price and a ten-minute-old tick
func DemoRecords(opts DemoOptions) []tick.Raw {
	rng := rand.New(rand.NewSource(opts.Seed))
	ts := opts.Start
	jitter := decimal.RequireFromString("0.10")

	records := make([]tick.Raw, 0, opts.NormalTicks+3)
	for i := 0; i < opts.NormalTicks; i++ {
		// uniform in [-0.10, +0.10]
		offset := jitter.Mul(decimal.NewFromFloat(rng.Float64()*2 - 1))
		records = append(records, tick.Raw{
			tick.FieldSymbol:     opts.Symbol,
			tick.FieldPrice:      opts.BasePrice.Add(offset).StringFixed(2),
			tick.FieldVolume:     100 + rng.Intn(901),
			tick.FieldTimestamp:  ts.Format(time.RFC3339Nano),
			tick.FieldSequenceID: i + 1,
			tick.FieldExchange:   opts.Exchange,
		})
		ts = ts.Add(opts.Interval)
	}

	seq := opts.NormalTicks + 1
	crash := opts.BasePrice.Mul(decimal.RequireFromString("0.50"))

	records = append(records,
		tick.Raw{
			tick.FieldSymbol:     opts.Symbol,
			tick.FieldPrice:      crash.StringFixed(2),
			tick.FieldVolume:     5000,
			tick.FieldTimestamp:  ts.Format(time.RFC3339Nano),
			tick.FieldSequenceID: seq,
			tick.FieldExchange:   opts.Exchange,
		},
		tick.Raw{
			tick.FieldSymbol:    opts.Symbol,
			tick.FieldPrice:     "invalid",
			tick.FieldTimestamp: ts.Format(time.RFC3339Nano),
		},
		tick.Raw{
			tick.FieldSymbol:     opts.Symbol,
			tick.FieldPrice:      opts.BasePrice.Add(decimal.RequireFromString("0.05")).StringFixed(2),
			tick.FieldTimestamp:  ts.Add(-10 * time.Minute).Format(time.RFC3339Nano),
			tick.FieldSequenceID: seq + 2,
			tick.FieldExchange:   opts.Exchange,
		},
	)
	return records
}

// NewDemo returns a source over DemoRecords(opts)
func NewDemo(opts DemoOptions) *SliceSource {
	return NewSlice(DemoRecords(opts))
}
