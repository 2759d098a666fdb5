package tick

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultExchange is used when a record carries no exchange field
const DefaultExchange = "UNKNOWN"

// Raw is a loosely typed record as handed over by a producer
type Raw map[string]interface{}

// Field names understood by the schema parser
const (
	FieldSymbol     = "symbol"
	FieldPrice      = "price"
	FieldVolume     = "volume"
	FieldTimestamp  = "timestamp"
	FieldSequenceID = "sequence_id"
	FieldExchange   = "exchange"
)

// Tick is one validated market data point. Only Parse builds a Tick and
// nothing downstream modifies it.
type Tick struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	Volume     int64           `json:"volume"`
	Timestamp  time.Time       `json:"timestamp"`
	SequenceID *int64          `json:"sequence_id,omitempty"`
	Exchange   string          `json:"exchange"`
}

// HasSequence reports whether the tick carries a sequence id
func (t Tick) HasSequence() bool {
	return t.SequenceID != nil
}

// Sequence returns the sequence id, or 0 when absent
func (t Tick) Sequence() int64 {
	if t.SequenceID == nil {
		return 0
	}
	return *t.SequenceID
}

// Age returns how far the tick timestamp lies behind now (negative for
// timestamps in the future)
func (t Tick) Age(now time.Time) time.Duration {
	return now.Sub(t.Timestamp)
}
