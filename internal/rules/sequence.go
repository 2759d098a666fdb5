package rules

import (
	"fmt"
	"time"

	"github.com/sawpanic/tickgate/internal/market"
	"github.com/sawpanic/tickgate/internal/tick"
)

// Sequence flags duplicate or reordered sequence ids. Gaps are reported as
// advisories only: several producers may interleave on one symbol.
type Sequence struct{}

func (r Sequence) Name() string            { return RuleSequence }
func (r Sequence) Severity() tick.Severity { return tick.SeveritySoft }

func (r Sequence) Evaluate(t tick.Tick, state market.State, _ time.Time) *tick.Violation {
	if !t.HasSequence() || !state.HasSequence {
		return nil
	}
	if seq := t.Sequence(); seq <= state.LastSequenceID {
		return violation(r, fmt.Sprintf("sequence %d <= last accepted %d; duplicate or out-of-order message",
			seq, state.LastSequenceID))
	}
	return nil
}

func (r Sequence) Advise(t tick.Tick, state market.State) *tick.Advisory {
	if !t.HasSequence() || !state.HasSequence {
		return nil
	}
	expected := state.LastSequenceID + 1
	if seq := t.Sequence(); seq > expected {
		return &tick.Advisory{
			Signal:  SignalSequenceGap,
			Message: fmt.Sprintf("sequence gap: expected %d, got %d (%d missing)", expected, seq, seq-expected),
		}
	}
	return nil
}
