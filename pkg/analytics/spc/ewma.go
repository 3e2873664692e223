package spc

import "math"

// EWMA is an exponentially-weighted moving-average monitor, sensitive to
// small sustained shifts that a Shewhart chart alone would miss.
type EWMA struct {
	Target, Sigma, Lambda, L float64
	z                        float64
}

// NewEWMA constructs an EWMA monitor; z0 = target.
func NewEWMA(target, sigma, lambda, l float64) *EWMA {
	return &EWMA{Target: target, Sigma: sigma, Lambda: lambda, L: l, z: target}
}

// Add folds in a new observation and returns the updated statistic plus
// whether it has crossed its (asymptotic) control limits.
func (e *EWMA) Add(x float64) (z float64, outOfControl bool) {
	e.z = e.Lambda*x + (1-e.Lambda)*e.z

	limit := e.L * e.Sigma * math.Sqrt(e.Lambda/(2-e.Lambda))
	upper := e.Target + limit
	lower := e.Target - limit
	return e.z, e.z > upper || e.z < lower
}

// Value returns the current EWMA statistic without adding a new point.
func (e *EWMA) Value() float64 {
	return e.z
}
