package ingest

import (
	"github.com/sawpanic/tickgate/internal/rules"
	"github.com/sawpanic/tickgate/internal/tick"
)

// Statistics is a snapshot of the engine counters
type Statistics struct {
	TotalProcessed int64            `json:"total_processed"`
	Verified       int64            `json:"verified"`
	Suspect        int64            `json:"suspect"`
	Rejected       int64            `json:"rejected"`
	RuleViolations map[string]int64 `json:"rule_violations"`
	SequenceGaps   int64            `json:"sequence_gaps"`
	DeadLetters    int              `json:"dead_letter_size"`
}

// Count returns the counter for one quality tier
func (s Statistics) Count(q tick.Quality) int64 {
	switch q {
	case tick.QualityVerified:
		return s.Verified
	case tick.QualitySuspect:
		return s.Suspect
	case tick.QualityRejected:
		return s.Rejected
	default:
		return 0
	}
}

// Map flattens the snapshot into counter name -> value
func (s Statistics) Map() map[string]int64 {
	m := map[string]int64{
		"total_processed":  s.TotalProcessed,
		"verified":         s.Verified,
		"suspect":          s.Suspect,
		"rejected":         s.Rejected,
		"sequence_gaps":    s.SequenceGaps,
		"dead_letter_size": int64(s.DeadLetters),
	}
	for rule, n := range s.RuleViolations {
		m["violations."+rule] = n
	}
	return m
}

// counters is guarded by Engine.mu
type counters struct {
	total   int64
	byTier  map[tick.Quality]int64
	byRule  map[string]int64
	seqGaps int64
}

func newCounters() counters {
	return counters{
		byTier: make(map[tick.Quality]int64, len(tick.Qualities)),
		byRule: make(map[string]int64),
	}
}

func (c *counters) add(r Result) {
	c.total++
	c.byTier[r.Quality]++
	for _, v := range r.Violations {
		c.byRule[v.Rule]++
	}
	for _, a := range r.Advisories {
		if a.Signal == rules.SignalSequenceGap {
			c.seqGaps++
		}
	}
}

func (c *counters) snapshot(deadLetters int) Statistics {
	byRule := make(map[string]int64, len(c.byRule))
	for k, v := range c.byRule {
		byRule[k] = v
	}
	return Statistics{
		TotalProcessed: c.total,
		Verified:       c.byTier[tick.QualityVerified],
		Suspect:        c.byTier[tick.QualitySuspect],
		Rejected:       c.byTier[tick.QualityRejected],
		RuleViolations: byRule,
		SequenceGaps:   c.seqGaps,
		DeadLetters:    deadLetters,
	}
}
