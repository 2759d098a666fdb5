package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tickgate/internal/tick"
)

var (
	hard = tick.Violation{Rule: "price_bounds", Severity: tick.SeverityHard}
	soft = tick.Violation{Rule: "staleness", Severity: tick.SeveritySoft}
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name       string
		violations []tick.Violation
		want       tick.Quality
	}{
		{"none", nil, tick.QualityVerified},
		{"soft only", []tick.Violation{soft, soft}, tick.QualitySuspect},
		{"hard only", []tick.Violation{hard}, tick.QualityRejected},
		{"hard dominates", []tick.Violation{soft, soft, soft, hard}, tick.QualityRejected},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.violations))
		})
	}
}

func TestPrimary(t *testing.T) {
	_, ok := Primary(nil)
	assert.False(t, ok, "no primary violation for empty input")

	got, ok := Primary([]tick.Violation{soft, hard})
	require.True(t, ok)
	assert.Equal(t, hard.Rule, got.Rule, "first hard violation wins")

	got, ok = Primary([]tick.Violation{soft})
	require.True(t, ok)
	assert.Equal(t, soft.Rule, got.Rule)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{Hard: 1, Soft: 2}, Summarize([]tick.Violation{soft, hard, soft}))
	assert.Equal(t, Summary{}, Summarize(nil))
}
