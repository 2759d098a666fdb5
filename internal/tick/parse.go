package tick

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// SchemaRule is the rule name carried by every parse failure
const SchemaRule = "schema"

// Parse messages, also used as stable identifiers in tests and reports
const (
	MsgInvalidSymbol    = "schema: missing/invalid symbol"
	MsgInvalidPrice     = "schema: invalid price format"
	MsgInvalidVolume    = "schema: invalid volume"
	MsgInvalidTimestamp = "schema: invalid timestamp"
	MsgInvalidSequence  = "schema: invalid sequence_id"
)

// timestampLayouts are tried in order; all of them require a zone
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
}

// Prices are settled by magnitude (digits + exponent) before rounding.
// Anything above maxPriceMagnitude is unusable; anything below
// minPriceMagnitude rounds to zero at every supported scale.
const (
	maxPriceMagnitude = 19
	minPriceMagnitude = -64
)

// ParseOptions bounds the schema checks
type ParseOptions struct {
	MaxSymbolLength int   // 10
	PriceScale      int32 // fractional digits kept on price (4)
}

// DefaultParseOptions returns the default schema limits
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		MaxSymbolLength: 10,
		PriceScale:      4,
	}
}

// Parse converts a raw record into a Tick. It stops at the first failing
// field and never returns a partially built tick.
func Parse(raw Raw, opts ParseOptions) (*Tick, *Violation) {
	if opts.MaxSymbolLength <= 0 {
		opts.MaxSymbolLength = DefaultParseOptions().MaxSymbolLength
	}

	symbol, ok := parseSymbol(raw[FieldSymbol], opts.MaxSymbolLength)
	if !ok {
		return nil, schemaViolation(FieldSymbol, MsgInvalidSymbol)
	}

	price, ok := parsePrice(raw[FieldPrice])
	if !ok {
		return nil, schemaViolation(FieldPrice, MsgInvalidPrice)
	}

	var volume int64
	if v, present := lookup(raw, FieldVolume); present {
		volume, ok = toInt64(v)
		if !ok || volume < 0 {
			return nil, schemaViolation(FieldVolume, MsgInvalidVolume)
		}
	}

	ts, ok := parseTimestamp(raw[FieldTimestamp])
	if !ok {
		return nil, schemaViolation(FieldTimestamp, MsgInvalidTimestamp)
	}

	var seq *int64
	if v, present := lookup(raw, FieldSequenceID); present {
		n, ok := toInt64(v)
		if !ok {
			return nil, schemaViolation(FieldSequenceID, MsgInvalidSequence)
		}
		seq = &n
	}

	exchange := DefaultExchange
	if s, ok := raw[FieldExchange].(string); ok && strings.TrimSpace(s) != "" {
		exchange = strings.TrimSpace(s)
	}

	return &Tick{
		Symbol:     symbol,
		Price:      price.Round(opts.PriceScale),
		Volume:     volume,
		Timestamp:  ts,
		SequenceID: seq,
		Exchange:   exchange,
	}, nil
}

func schemaViolation(field, msg string) *Violation {
	return &Violation{
		Rule:     SchemaRule,
		Message:  msg,
		Severity: SeverityHard,
		Field:    field,
	}
}

// lookup treats explicit nulls the same as missing keys
func lookup(raw Raw, field string) (interface{}, bool) {
	v, ok := raw[field]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func parseSymbol(value interface{}, maxLen int) (string, bool) {
	s, ok := value.(string)
	if !ok {
		return "", false
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || utf8.RuneCountInString(s) > maxLen {
		return "", false
	}
	return s, true
}

func parsePrice(value interface{}) (decimal.Decimal, bool) {
	d, ok := decodePrice(value)
	if !ok {
		return decimal.Zero, false
	}
	return boundMagnitude(d)
}

// boundMagnitude keeps Round cheap: rescaling cost grows with the exponent
func boundMagnitude(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.IsZero() {
		return decimal.Zero, true
	}
	magnitude := int64(d.NumDigits()) + int64(d.Exponent())
	if magnitude > maxPriceMagnitude {
		return decimal.Zero, false
	}
	if magnitude < minPriceMagnitude {
		return decimal.Zero, true
	}
	return d, true
}

func decodePrice(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(v), true
	}

	if n, ok := integerValue(value); ok {
		return decimal.NewFromInt(n), true
	}
	return decimal.Zero, false
}

func parseTimestamp(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// toInt64 accepts integer kinds, integral floats and numeric strings
func toInt64(value interface{}) (int64, bool) {
	if n, ok := integerValue(value); ok {
		return n, true
	}

	switch v := value.(type) {
	case float64:
		return integralFloat(v)
	case float32:
		return integralFloat(float64(v))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return integralFloat(f)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func integerValue(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uintValue(v)
	}
	return 0, false
}

func uintValue(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}
