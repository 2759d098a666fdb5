package tick

import "fmt"

// Severity tells whether a violation rejects the record or only degrades it
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Quality is the tier attached to every processed record
type Quality string

const (
	QualityVerified Quality = "VERIFIED"
	QualitySuspect  Quality = "SUSPECT"
	QualityRejected Quality = "REJECTED"
)

// Qualities lists every tier in reporting order
var Qualities = []Quality{QualityVerified, QualitySuspect, QualityRejected}

// Accepted reports whether ticks of this quality enter the symbol context
func (q Quality) Accepted() bool {
	return q == QualityVerified || q == QualitySuspect
}

// Violation is a single rule failure
type Violation struct {
	Rule     string   `json:"rule_violated"`
	Message  string   `json:"suggestion"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
}

// Hard reports whether the violation rejects the record
func (v Violation) Hard() bool {
	return v.Severity == SeverityHard
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s/%s] %s", v.Rule, v.Severity, v.Message)
}

// Advisory is an observable signal that never changes quality
type Advisory struct {
	Signal  string `json:"signal"`
	Message string `json:"message"`
}
