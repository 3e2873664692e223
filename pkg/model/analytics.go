package model

import "time"

// RtInterpretation classifies the trend of an RtEstimate.
type RtInterpretation string

const (
	RtGrowing   RtInterpretation = "growing"
	RtStable    RtInterpretation = "stable"
	RtDeclining RtInterpretation = "declining"
)

// RtEstimate is the instantaneous effective reproduction number estimate
// produced by the Cori-method estimator in pkg/analytics/sir.
type RtEstimate struct {
	Date           time.Time
	RtMean         float64
	RtLower        float64
	RtUpper        float64
	Confidence     float64
	Interpretation RtInterpretation
}

// Phase classifies an outbreak-like signal by its current incidence level
// relative to population size.
type Phase string

const (
	PhaseNoCases  Phase = "no_cases"
	PhaseSporadic Phase = "sporadic"
	PhaseOutbreak Phase = "outbreak"
	PhaseEpidemic Phase = "epidemic"
	PhaseCrisis   Phase = "crisis"
)

// ControlChartZone is the Shewhart sigma-band a point falls into.
type ControlChartZone string

const (
	ZoneA   ControlChartZone = "A"
	ZoneB   ControlChartZone = "B"
	ZoneC   ControlChartZone = "C"
	ZoneOut ControlChartZone = "Out"
)

// ControlChartPoint is one sample plotted on a Shewhart X-bar chart.
type ControlChartPoint struct {
	Timestamp    time.Time
	Value        float64
	Zone         ControlChartZone
	InControl    bool
	ViolatedRule *int
}
