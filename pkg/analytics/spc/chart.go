// Package spc implements Shewhart X-bar control charts, CUSUM and EWMA
// monitors, and the eight Western Electric rules, used to watch schedule
// metrics (coverage rate, hours variance, churn) for statistical drift.
package spc

import (
	"math"
	"time"

	"github.com/meridian-health/resicore/pkg/model"
)

// Baseline is the fitted center line and sigma a chart measures new points
// against.
type Baseline struct {
	Mean  float64
	Sigma float64
}

// Fit computes mean/sigma (population standard deviation) from a baseline
// sequence of at least 5 points.
func Fit(baseline []float64) (Baseline, bool) {
	if len(baseline) < 5 {
		return Baseline{}, false
	}
	var sum float64
	for _, v := range baseline {
		sum += v
	}
	mean := sum / float64(len(baseline))

	var sumSq float64
	for _, v := range baseline {
		sumSq += (v - mean) * (v - mean)
	}
	sigma := math.Sqrt(sumSq / float64(len(baseline)))
	return Baseline{Mean: mean, Sigma: sigma}, true
}

// Limits are the sigma-banded control limits derived from a Baseline.
type Limits struct {
	UCL, UWL, LWL, LCL float64
}

// Limits computes UCL/UWL/LWL/LCL at 3-sigma/2-sigma bands.
func (b Baseline) Limits() Limits {
	return Limits{
		UCL: b.Mean + 3*b.Sigma,
		UWL: b.Mean + 2*b.Sigma,
		LWL: b.Mean - 2*b.Sigma,
		LCL: b.Mean - 3*b.Sigma,
	}
}

// Cp is the process capability index (UCL-LCL)/(6*sigma).
func (b Baseline) Cp() float64 {
	if b.Sigma == 0 {
		return 0
	}
	limits := b.Limits()
	return (limits.UCL - limits.LCL) / (6 * b.Sigma)
}

// Cpk is the centered capability index min((UCL-mean)/3sigma, (mean-LCL)/3sigma).
func (b Baseline) Cpk() float64 {
	if b.Sigma == 0 {
		return 0
	}
	limits := b.Limits()
	upper := (limits.UCL - b.Mean) / (3 * b.Sigma)
	lower := (b.Mean - limits.LCL) / (3 * b.Sigma)
	if upper < lower {
		return upper
	}
	return lower
}

// Zone classifies a value's distance from the mean in sigma units.
func (b Baseline) Zone(value float64) model.ControlChartZone {
	if b.Sigma == 0 {
		if value == b.Mean {
			return model.ZoneA
		}
		return model.ZoneOut
	}
	dist := math.Abs(value-b.Mean) / b.Sigma
	switch {
	case dist <= 1:
		return model.ZoneA
	case dist <= 2:
		return model.ZoneB
	case dist <= 3:
		return model.ZoneC
	default:
		return model.ZoneOut
	}
}

// Chart is a Shewhart X-bar chart fitted to a baseline, accumulating
// plotted points and Western Electric rule evaluation as they're added.
type Chart struct {
	Baseline Baseline
	Points   []model.ControlChartPoint
}

// NewChart fits a chart from a baseline sequence; ok is false if the
// baseline has fewer than 5 points.
func NewChart(baseline []float64) (*Chart, bool) {
	b, ok := Fit(baseline)
	if !ok {
		return nil, false
	}
	return &Chart{Baseline: b}, true
}

// AddPoint appends a new sample, classifies its zone, and re-evaluates the
// Western Electric rules over the full accumulated series so far.
func (c *Chart) AddPoint(timestamp time.Time, value float64) model.ControlChartPoint {
	zone := c.Baseline.Zone(value)
	point := model.ControlChartPoint{
		Timestamp: timestamp,
		Value:     value,
		Zone:      zone,
	}
	c.Points = append(c.Points, point)

	violations := CheckAllRules(c.Points, c.Baseline)
	var violatedHere *int
	for _, v := range violations {
		if containsIndex(v.PointsInvolved, len(c.Points)-1) {
			rule := v.RuleNumber
			violatedHere = &rule
			break
		}
	}

	c.Points[len(c.Points)-1].ViolatedRule = violatedHere
	c.Points[len(c.Points)-1].InControl = zone != model.ZoneOut && violatedHere == nil
	return c.Points[len(c.Points)-1]
}

func containsIndex(indices []int, idx int) bool {
	for _, i := range indices {
		if i == idx {
			return true
		}
	}
	return false
}
