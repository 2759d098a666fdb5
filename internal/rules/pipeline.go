package rules

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sawpanic/tickgate/internal/market"
	"github.com/sawpanic/tickgate/internal/tick"
)

// Thresholds parameterizes the default rule set
type Thresholds struct {
	MaxPrice           decimal.Decimal
	MovementThreshold  decimal.Decimal
	StalenessThreshold time.Duration
	FutureTolerance    time.Duration
}

// DefaultThresholds returns the default rule limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxPrice:           decimal.NewFromInt(1_000_000),
		MovementThreshold:  decimal.RequireFromString("0.30"),
		StalenessThreshold: 2 * time.Minute,
		FutureTolerance:    5 * time.Second,
	}
}

// Outcome collects everything one pass produced, in rule order
type Outcome struct {
	Violations []tick.Violation
	Advisories []tick.Advisory
}

// Pipeline runs the schema stage and then an ordered rule list
type Pipeline struct {
	schema tick.ParseOptions
	rules  []Rule
}

// NewPipeline builds a pipeline from an explicit rule order
func NewPipeline(schema tick.ParseOptions, rules ...Rule) *Pipeline {
	return &Pipeline{
		schema: schema,
		rules:  rules,
	}
}

// DefaultPipeline returns price_bounds, price_movement, temporal,
// staleness, sequence in that order
func DefaultPipeline(schema tick.ParseOptions, th Thresholds) *Pipeline {
	return NewPipeline(schema,
		PriceBounds{Max: th.MaxPrice},
		PriceMovement{Threshold: th.MovementThreshold},
		FutureTimestamp{Tolerance: th.FutureTolerance},
		Staleness{MaxAge: th.StalenessThreshold},
		Sequence{},
	)
}

// Rules returns the rule names in evaluation order
func (p *Pipeline) Rules() []string {
	names := make([]string, 0, len(p.rules))
	for _, r := range p.rules {
		names = append(names, r.Name())
	}
	return names
}

// Schema is the short-circuiting first stage
func (p *Pipeline) Schema(raw tick.Raw) (*tick.Tick, *tick.Violation) {
	return tick.Parse(raw, p.schema)
}

// Run evaluates every rule; no rule short-circuits another
func (p *Pipeline) Run(t tick.Tick, state market.State, now time.Time) Outcome {
	var out Outcome
	for _, r := range p.rules {
		if v := r.Evaluate(t, state, now); v != nil {
			out.Violations = append(out.Violations, *v)
		}
		if a, ok := r.(Advisor); ok {
			if adv := a.Advise(t, state); adv != nil {
				out.Advisories = append(out.Advisories, *adv)
			}
		}
	}
	return out
}
