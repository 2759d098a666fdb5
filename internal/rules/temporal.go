package rules

import (
	"fmt"
	"time"

	"github.com/sawpanic/tickgate/internal/market"
	"github.com/sawpanic/tickgate/internal/tick"
)

// FutureTimestamp rejects ticks stamped further ahead of now than the
// allowed clock skew
type FutureTimestamp struct {
	Tolerance time.Duration
}

func (r FutureTimestamp) Name() string            { return RuleTemporal }
func (r FutureTimestamp) Severity() tick.Severity { return tick.SeverityHard }

func (r FutureTimestamp) Evaluate(t tick.Tick, _ market.State, now time.Time) *tick.Violation {
	ahead := t.Timestamp.Sub(now)
	if ahead <= r.Tolerance {
		return nil
	}
	return violation(r, fmt.Sprintf("temporal: future timestamp (%v ahead, tolerance %v)",
		ahead.Round(time.Millisecond), r.Tolerance))
}

// Staleness flags ticks older than MaxAge
type Staleness struct {
	MaxAge time.Duration
}

func (r Staleness) Name() string            { return RuleStaleness }
func (r Staleness) Severity() tick.Severity { return tick.SeveritySoft }

func (r Staleness) Evaluate(t tick.Tick, _ market.State, now time.Time) *tick.Violation {
	age := t.Age(now)
	if age <= r.MaxAge {
		return nil
	}
	return violation(r, fmt.Sprintf("data is %v old (limit %v); check feed latency",
		age.Round(time.Second), r.MaxAge))
}
