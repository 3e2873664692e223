package sir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/resicore/pkg/model"
)

func TestCalculateRtDecliningScenario(t *testing.T) {
	estimator := NewEstimator(SerialInterval{MeanDays: 7, StdDays: 3}, 5)
	incidence := []float64{5, 5, 5, 4, 3, 2, 1, 1, 0, 0}

	estimates := estimator.CalculateRt(incidence, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NotEmpty(t, estimates)

	final := estimates[len(estimates)-1]
	assert.Less(t, final.RtMean, 1.0)
	assert.Equal(t, model.RtDeclining, final.Interpretation)
}

func TestCalculateRtReturnsNilWhenTooShort(t *testing.T) {
	estimator := NewEstimator(SerialInterval{MeanDays: 7, StdDays: 3}, 7)
	assert.Nil(t, estimator.CalculateRt([]float64{1, 2, 3}, time.Now()))
}

func TestRtFromR0ScalesBySusceptibleFraction(t *testing.T) {
	assert.InDelta(t, 1.5, RtFromR0(3.0, 50, 100), 1e-9)
	assert.Equal(t, 0.0, RtFromR0(3.0, 50, 0))
}

func TestAssessControlDetectsSustainedSuppression(t *testing.T) {
	history := []model.RtEstimate{
		{RtMean: 0.6, RtUpper: 0.8},
		{RtMean: 0.55, RtUpper: 0.75},
		{RtMean: 0.5, RtUpper: 0.7},
	}
	current := model.RtEstimate{RtMean: 0.45, RtUpper: 0.65, Interpretation: model.RtDeclining}

	assessment := AssessControl(current, history, 3)
	assert.True(t, assessment.IsControlled)
	assert.Equal(t, "improving", assessment.Trend)
}

func TestAssessControlNotControlledWhenUpperAboveOne(t *testing.T) {
	current := model.RtEstimate{RtMean: 1.2, RtUpper: 1.4, Interpretation: model.RtGrowing}
	assessment := AssessControl(current, nil, 3)
	assert.False(t, assessment.IsControlled)
}
