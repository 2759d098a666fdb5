package rules

import (
	"time"

	"github.com/sawpanic/tickgate/internal/market"
	"github.com/sawpanic/tickgate/internal/tick"
)

// Rule names reported in violations and statistics
const (
	RulePriceBounds   = "price_bounds"
	RulePriceMovement = "price_movement"
	RuleTemporal      = "temporal"
	RuleStaleness     = "staleness"
	RuleSequence      = "sequence_duplicate_or_reorder"

	SignalSequenceGap = "sequence_gap"
)

// Rule is a pure check of one candidate tick against its symbol context
type Rule interface {
	Name() string
	Severity() tick.Severity
	Evaluate(t tick.Tick, state market.State, now time.Time) *tick.Violation
}

// Advisor is implemented by rules that also emit non-penalizing signals
type Advisor interface {
	Advise(t tick.Tick, state market.State) *tick.Advisory
}

func violation(r Rule, msg string) *tick.Violation {
	return &tick.Violation{
		Rule:     r.Name(),
		Message:  msg,
		Severity: r.Severity(),
	}
}
