package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sawpanic/tickgate/internal/market"
	"github.com/sawpanic/tickgate/internal/tick"
)

var hundred = decimal.NewFromInt(100)

// PriceBounds rejects prices outside (0, Max]
type PriceBounds struct {
	Max decimal.Decimal
}

func (r PriceBounds) Name() string            { return RulePriceBounds }
func (r PriceBounds) Severity() tick.Severity { return tick.SeverityHard }

func (r PriceBounds) Evaluate(t tick.Tick, _ market.State, _ time.Time) *tick.Violation {
	if !t.Price.IsPositive() {
		return violation(r, fmt.Sprintf("price %s must be positive", t.Price.String()))
	}
	if t.Price.GreaterThan(r.Max) {
		return violation(r, fmt.Sprintf("price %s exceeds maximum %s", t.Price.String(), r.Max.String()))
	}
	return nil
}

// PriceMovement flags a relative move from the last accepted price larger
// than Threshold. Only the immediately preceding price is considered.
type PriceMovement struct {
	Threshold decimal.Decimal // fraction, 0.30 = 30%
}

func (r PriceMovement) Name() string            { return RulePriceMovement }
func (r PriceMovement) Severity() tick.Severity { return tick.SeveritySoft }

func (r PriceMovement) Evaluate(t tick.Tick, state market.State, _ time.Time) *tick.Violation {
	if !state.LastPrice.Valid || !state.LastPrice.Decimal.IsPositive() {
		return nil
	}

	last := state.LastPrice.Decimal
	change := RelativeChange(last, t.Price)
	if !change.GreaterThan(r.Threshold) {
		return nil
	}

	direction, hint := "spike", "possible fat-finger or squeeze"
	if t.Price.LessThan(last) {
		direction, hint = "drop", "possible flash crash"
	}

	return violation(r, fmt.Sprintf("price %s of %s%% vs last accepted %s exceeds %s%% threshold; %s",
		direction,
		change.Mul(hundred).StringFixed(2),
		last.StringFixed(4),
		r.Threshold.Mul(hundred).StringFixed(2),
		hint,
	))
}

// RelativeChange returns |price - last| / last
func RelativeChange(last, price decimal.Decimal) decimal.Decimal {
	if last.IsZero() {
		return decimal.Zero
	}
	return price.Sub(last).Abs().Div(last)
}
