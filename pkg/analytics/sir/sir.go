// Package sir implements the continuous SIR epidemiological model and the
// Cori-method effective reproduction number estimator, repurposed here to
// treat schedule burnout dynamics (e.g. fatigue/attrition propagating
// through a resident cohort) as a compartmental signal.
package sir

import "github.com/meridian-health/resicore/pkg/model"

// Parameters holds the transmission/recovery rates governing one SIR run.
type Parameters struct {
	Beta  float64 // transmission rate, >= 0
	Gamma float64 // recovery rate, > 0
}

// R0 is the basic reproduction number beta/gamma.
func (p Parameters) R0() float64 {
	if p.Gamma <= 0 {
		return 0
	}
	return p.Beta / p.Gamma
}

// HerdImmunityThreshold is 1 - 1/R0, reported as 0 when R0 <= 1.
func (p Parameters) HerdImmunityThreshold() float64 {
	r0 := p.R0()
	if r0 <= 1 {
		return 0
	}
	return 1 - 1/r0
}

// Forecast is the daily trajectory produced by Simulate.
type Forecast struct {
	S, I, R      []float64
	PeakInfected float64
	PeakDay      int
	TotalCases   float64
}

// Model runs the continuous SIR ODE with a fixed population size.
type Model struct {
	Params Parameters
}

// NewModel constructs a Model for the given parameters.
func NewModel(params Parameters) Model {
	return Model{Params: params}
}

// Simulate integrates dS/dt, dI/dt, dR/dt with an RK4 step substepped well
// under one day, starting from S0+I0+R0 = N, and conserves S+I+R = N to
// floating-point tolerance.
func (m Model) Simulate(s0, i0, r0 float64, days int) Forecast {
	n := s0 + i0 + r0
	const substepsPerDay = 8
	dt := 1.0 / substepsPerDay

	s, i, r := s0, i0, r0
	out := Forecast{
		S: make([]float64, 0, days+1),
		I: make([]float64, 0, days+1),
		R: make([]float64, 0, days+1),
	}
	out.S = append(out.S, s)
	out.I = append(out.I, i)
	out.R = append(out.R, r)

	deriv := func(s, i float64) (ds, di, dr float64) {
		infection := m.Params.Beta * s * i / n
		recovery := m.Params.Gamma * i
		return -infection, infection - recovery, recovery
	}

	for day := 0; day < days; day++ {
		for step := 0; step < substepsPerDay; step++ {
			k1s, k1i, k1r := deriv(s, i)
			k2s, k2i, k2r := deriv(s+dt/2*k1s, i+dt/2*k1i)
			k3s, k3i, k3r := deriv(s+dt/2*k2s, i+dt/2*k2i)
			k4s, k4i, k4r := deriv(s+dt*k3s, i+dt*k3i)

			s += dt / 6 * (k1s + 2*k2s + 2*k3s + k4s)
			i += dt / 6 * (k1i + 2*k2i + 2*k3i + k4i)
			r += dt / 6 * (k1r + 2*k2r + 2*k3r + k4r)

			if s < 0 {
				s = 0
			}
			if i < 0 {
				i = 0
			}
		}
		out.S = append(out.S, s)
		out.I = append(out.I, i)
		out.R = append(out.R, r)
	}

	for day, value := range out.I {
		if value > out.PeakInfected {
			out.PeakInfected = value
			out.PeakDay = day
		}
	}
	out.TotalCases = out.R[len(out.R)-1] + out.I[len(out.I)-1] - i0 - r0
	if out.TotalCases < 0 {
		out.TotalCases = 0
	}
	return out
}

// ClassifyPhase buckets an incidence level against population at the
// 0, <1%, 1-5%, 5-15%, >15% thresholds.
func ClassifyPhase(infected, population float64) model.Phase {
	if population <= 0 || infected <= 0 {
		return model.PhaseNoCases
	}
	frac := infected / population
	switch {
	case frac < 0.01:
		return model.PhaseSporadic
	case frac < 0.05:
		return model.PhaseOutbreak
	case frac < 0.15:
		return model.PhaseEpidemic
	default:
		return model.PhaseCrisis
	}
}

// InterventionEffect is the comparison between a baseline and intervention
// transmission rate, both run from the same initial conditions.
type InterventionEffect struct {
	CasesPrevented    float64
	CasesPreventedPct float64
	PeakReduction     float64
	PeakDelayDays     int
}

// InterventionEffect runs two simulations (baseline betaBase vs
// intervention betaInt) from the same initial conditions and reports the
// delta.
func (m Model) InterventionEffect(betaBase, betaInt, i0, n float64, days int) InterventionEffect {
	baseline := Model{Params: Parameters{Beta: betaBase, Gamma: m.Params.Gamma}}.Simulate(n-i0, i0, 0, days)
	intervention := Model{Params: Parameters{Beta: betaInt, Gamma: m.Params.Gamma}}.Simulate(n-i0, i0, 0, days)

	casesPrevented := baseline.TotalCases - intervention.TotalCases
	pct := 0.0
	if baseline.TotalCases > 0 {
		pct = casesPrevented / baseline.TotalCases * 100
	}

	return InterventionEffect{
		CasesPrevented:    casesPrevented,
		CasesPreventedPct: pct,
		PeakReduction:     baseline.PeakInfected - intervention.PeakInfected,
		PeakDelayDays:     intervention.PeakDay - baseline.PeakDay,
	}
}
