package spc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-health/resicore/pkg/model"
)

func pointsFrom(baseline Baseline, values []float64) []model.ControlChartPoint {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.ControlChartPoint, len(values))
	for i, v := range values {
		out[i] = model.ControlChartPoint{
			Timestamp: base.AddDate(0, 0, i),
			Value:     v,
			Zone:      baseline.Zone(v),
		}
	}
	return out
}

func TestRule1SinglePointBeyondThreeSigma(t *testing.T) {
	baseline := Baseline{Mean: 0, Sigma: 1}
	points := pointsFrom(baseline, []float64{0, 0, 0, 0, 4})
	violations := CheckAllRules(points, baseline)

	found := false
	for _, v := range violations {
		if v.RuleNumber == 1 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRule4EightConsecutiveSameSide(t *testing.T) {
	baseline := Baseline{Mean: 0, Sigma: 1}
	values := make([]float64, 8)
	for i := range values {
		values[i] = 0.2
	}
	points := pointsFrom(baseline, values)
	violations := CheckAllRules(points, baseline)

	found := false
	for _, v := range violations {
		if v.RuleNumber == 4 {
			found = true
		}
	}
	assert.True(t, found, "expected rule 4 to fire for 8 consecutive same-side points")
}

func TestRule6FifteenPointsWithinOneSigma(t *testing.T) {
	baseline := Baseline{Mean: 0, Sigma: 10}
	values := make([]float64, 15)
	for i := range values {
		values[i] = 1
	}
	points := pointsFrom(baseline, values)
	violations := CheckAllRules(points, baseline)

	found := false
	for _, v := range violations {
		if v.RuleNumber == 6 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSummarizeEscalatesToOutOfControlOnCritical(t *testing.T) {
	assert.Equal(t, StatusInControl, Summarize(nil))
	assert.Equal(t, StatusOutOfControl, Summarize([]RuleViolation{{Severity: SeverityCritical}}))
	assert.Equal(t, StatusWarning, Summarize([]RuleViolation{{Severity: SeverityWarning}}))
	assert.Equal(t, StatusStable, Summarize([]RuleViolation{{Severity: SeverityInfo}}))
}
