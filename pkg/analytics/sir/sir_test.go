package sir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/resicore/pkg/model"
)

func TestSimulateConservesPopulation(t *testing.T) {
	m := NewModel(Parameters{Beta: 0.3, Gamma: 0.1})
	forecast := m.Simulate(95, 5, 0, 90)

	const eps = 1e-6
	for day := range forecast.S {
		total := forecast.S[day] + forecast.I[day] + forecast.R[day]
		assert.InDelta(t, 100.0, total, eps, "day %d", day)
	}
}

func TestSimulateEpidemicTrajectory(t *testing.T) {
	params := Parameters{Beta: 0.3, Gamma: 0.1}
	assert.InDelta(t, 3.0, params.R0(), 1e-9)

	m := NewModel(params)
	forecast := m.Simulate(95, 5, 0, 90)

	// The analytic peak prevalence for R0=3 is
	// N(1 - (1 + ln R0)/R0) ~ 30% of N; with I0=5 the integration peaks
	// near 32 around day 18.
	assert.True(t, forecast.PeakInfected >= 25 && forecast.PeakInfected <= 40, "peak_infected=%v", forecast.PeakInfected)
	assert.True(t, forecast.PeakDay >= 10 && forecast.PeakDay <= 30, "peak_day=%v", forecast.PeakDay)
	assert.Less(t, forecast.S[len(forecast.S)-1], 10.0)
}

func TestHerdImmunityThresholdZeroBelowR0One(t *testing.T) {
	assert.Equal(t, 0.0, Parameters{Beta: 0.1, Gamma: 0.2}.HerdImmunityThreshold())
	hit := Parameters{Beta: 0.3, Gamma: 0.1}.HerdImmunityThreshold()
	assert.InDelta(t, 1-1.0/3.0, hit, 1e-9)
}

func TestClassifyPhaseThresholds(t *testing.T) {
	assert.Equal(t, model.PhaseNoCases, ClassifyPhase(0, 100))
	assert.Equal(t, model.PhaseSporadic, ClassifyPhase(0.5, 100))
	assert.Equal(t, model.PhaseOutbreak, ClassifyPhase(3, 100))
	assert.Equal(t, model.PhaseEpidemic, ClassifyPhase(10, 100))
	assert.Equal(t, model.PhaseCrisis, ClassifyPhase(20, 100))
}

func TestInterventionEffectReducesCasesAndPeak(t *testing.T) {
	m := NewModel(Parameters{Beta: 0.4, Gamma: 0.1})
	effect := m.InterventionEffect(0.4, 0.2, 5, 100, 90)

	require.Greater(t, effect.CasesPrevented, 0.0)
	assert.Greater(t, effect.CasesPreventedPct, 0.0)
	assert.Greater(t, effect.PeakReduction, 0.0)
	assert.GreaterOrEqual(t, effect.PeakDelayDays, 0)
}

func TestGammaPDFIsNonNegative(t *testing.T) {
	for x := 1.0; x < 20; x++ {
		v := gammaPDF(x, 4, 2)
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
	}
}
