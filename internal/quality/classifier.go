// Package quality merges rule outcomes into a single quality tier.
package quality

import "github.com/sawpanic/tickgate/internal/tick"

// Classify maps violations to a tier. Severity dominance is strict: one
// hard violation outweighs any number of soft ones.
func Classify(violations []tick.Violation) tick.Quality {
	if len(violations) == 0 {
		return tick.QualityVerified
	}
	for _, v := range violations {
		if v.Hard() {
			return tick.QualityRejected
		}
	}
	return tick.QualitySuspect
}

// Primary returns the single cause reported for a record: the first hard
// violation in evaluation order, else the first violation
func Primary(violations []tick.Violation) (tick.Violation, bool) {
	for _, v := range violations {
		if v.Hard() {
			return v, true
		}
	}
	if len(violations) > 0 {
		return violations[0], true
	}
	return tick.Violation{}, false
}

// Summary counts violations by severity
type Summary struct {
	Hard int `json:"hard"`
	Soft int `json:"soft"`
}

// Summarize counts hard and soft violations
func Summarize(violations []tick.Violation) Summary {
	var s Summary
	for _, v := range violations {
		if v.Hard() {
			s.Hard++
		} else {
			s.Soft++
		}
	}
	return s
}
