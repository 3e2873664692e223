// Package resilience composes the analytics core into a single on-demand
// health summary for the current authoritative schedule: utilization and
// coverage from the assignments themselves, burnout Rt from the caller's
// incidence history, SPC status and periodicity strength from the daily
// assignment signal, folded into a unified index and defense level.
package resilience

import (
	"context"
	"math"
	"time"

	"github.com/meridian-health/resicore/internal/obslog"
	"github.com/meridian-health/resicore/pkg/analytics/sir"
	"github.com/meridian-health/resicore/pkg/analytics/spc"
	"github.com/meridian-health/resicore/pkg/analytics/subharmonic"
	"github.com/meridian-health/resicore/pkg/config"
	"github.com/meridian-health/resicore/pkg/model"
)

// DefenseLevel is the four-step escalation classification derived from
// the unified index and component health.
type DefenseLevel int

const (
	DefenseGreen DefenseLevel = iota
	DefenseYellow
	DefenseOrange
	DefenseRed
)

func (d DefenseLevel) String() string {
	switch d {
	case DefenseGreen:
		return "GREEN"
	case DefenseYellow:
		return "YELLOW"
	case DefenseOrange:
		return "ORANGE"
	default:
		return "RED"
	}
}

// Window scopes one summary request: the calendar span to analyze plus the
// caller's daily burnout incidence over that span (optional; Rt is
// omitted from the summary when absent or too short for the estimator).
type Window struct {
	Start            time.Time
	Days             int
	BurnoutIncidence []float64
}

// Summary is the composed health report.
type Summary struct {
	Utilization         float64
	CoverageRate        float64
	RtEstimate          *model.RtEstimate
	SPCStatus           spc.Status
	PeriodicityStrength float64
	UnifiedIndex        float64
	DefenseLevel        DefenseLevel
}

// StateProvider yields the current authoritative schedule state;
// satisfied by stroboscopic.Manager.
type StateProvider interface {
	GetObservableState() model.ScheduleState
}

// Service is the thin façade over the analyzers.
type Service struct {
	States StateProvider
	Config config.Config
}

// NewService constructs a Service reading authoritative state from states.
func NewService(states StateProvider, cfg config.Config) *Service {
	return &Service{States: states, Config: cfg}
}

// spcBaselineDays is how much of the window seeds the control chart
// before monitoring begins.
const spcBaselineDays = 14

// Summary computes the composed health report for the current
// authoritative state over window, against the caller-supplied context.
func (s *Service) Summary(ctx context.Context, schedCtx *model.SchedulingContext, window Window) Summary {
	state := s.States.GetObservableState()
	assignments := inWindow(state.Assignments, schedCtx, window)

	utilization := s.utilization(assignments, schedCtx, window)
	coverage := s.coverageRate(assignments, schedCtx, window)

	series := subharmonic.BuildSeries(assignments, schedCtx.Blocks, window.Start, window.Days, subharmonic.AggregationHours)
	spcStatus := s.spcStatus(series)
	periodicity := subharmonic.AnalyzePeriodicity(series, subharmonic.Options{
		MinSignificance: s.Config.Analytics.Subharmonic.MinSignificance,
	}).PeriodicityStrength

	rt := s.rtEstimate(window)

	unified, level := s.classify(state, utilization, coverage, rt, spcStatus, periodicity)

	obslog.FromContext(ctx).Infow("resilience summary",
		"schedule_state", state.StateID,
		"utilization", utilization,
		"coverage_rate", coverage,
		"spc_status", spcStatus,
		"unified_index", unified,
		"defense_level", level.String(),
	)

	return Summary{
		Utilization:         utilization,
		CoverageRate:        coverage,
		RtEstimate:          rt,
		SPCStatus:           spcStatus,
		PeriodicityStrength: periodicity,
		UnifiedIndex:        unified,
		DefenseLevel:        level,
	}
}

func inWindow(assignments []model.Assignment, schedCtx *model.SchedulingContext, window Window) []model.Assignment {
	blockByID := schedCtx.BlockByID()
	end := window.Start.AddDate(0, 0, window.Days)

	var out []model.Assignment
	for _, a := range assignments {
		block, ok := blockByID[a.BlockID]
		if !ok {
			continue
		}
		if block.Date.Before(window.Start) || !block.Date.Before(end) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// utilization is assigned hours divided by the cohort's weekly-capacity
// hours pro-rated over the window.
func (s *Service) utilization(assignments []model.Assignment, schedCtx *model.SchedulingContext, window Window) float64 {
	var capacity float64
	for _, p := range schedCtx.AllPeople() {
		capacity += p.MaxHoursPerWeek * float64(window.Days) / 7
	}
	if capacity <= 0 {
		return 0
	}
	var assigned float64
	for _, a := range assignments {
		assigned += a.Hours
	}
	return assigned / capacity
}

// coverageRate is the fraction of (block, template) minimum-coverage
// demands in the window that the assignments satisfy; 1 when no template
// declares a minimum.
func (s *Service) coverageRate(assignments []model.Assignment, schedCtx *model.SchedulingContext, window Window) float64 {
	end := window.Start.AddDate(0, 0, window.Days)

	counts := make(map[string]map[string]int) // blockID -> templateID -> assignees
	for _, a := range assignments {
		if counts[a.BlockID] == nil {
			counts[a.BlockID] = make(map[string]int)
		}
		counts[a.BlockID][a.RotationTemplateID]++
	}

	demands, satisfied := 0, 0
	for _, block := range schedCtx.Blocks {
		if block.Date.Before(window.Start) || !block.Date.Before(end) {
			continue
		}
		for _, template := range schedCtx.Templates {
			if template.MinCoverage <= 0 {
				continue
			}
			demands++
			if counts[block.ID][template.ID] >= template.MinCoverage {
				satisfied++
			}
		}
	}
	if demands == 0 {
		return 1
	}
	return float64(satisfied) / float64(demands)
}

// spcStatus fits a Shewhart chart on the window's leading days and
// monitors the remainder. Too little data reads as in_control rather
// than inventing a signal.
func (s *Service) spcStatus(series []float64) spc.Status {
	baselineLen := spcBaselineDays
	if baselineLen > len(series)/2 {
		baselineLen = len(series) / 2
	}
	if baselineLen < 5 {
		return spc.StatusInControl
	}
	chart, ok := spc.NewChart(series[:baselineLen])
	if !ok {
		return spc.StatusInControl
	}
	epoch := time.Unix(0, 0).UTC()
	for i, v := range series[baselineLen:] {
		chart.AddPoint(epoch.AddDate(0, 0, i), v)
	}
	return spc.Summarize(spc.CheckAllRules(chart.Points, chart.Baseline))
}

func (s *Service) rtEstimate(window Window) *model.RtEstimate {
	cfg := s.Config.Analytics.Rt
	estimator := sir.NewEstimator(sir.SerialInterval{
		MeanDays: cfg.SerialIntervalMeanDays,
		StdDays:  cfg.SerialIntervalStdDays,
	}, cfg.WindowSize)

	estimates := estimator.CalculateRt(window.BurnoutIncidence, window.Start)
	if len(estimates) == 0 {
		return nil
	}
	last := estimates[len(estimates)-1]
	return &last
}

// Component weights for the unified index. Coverage and the SPC signal
// carry the most weight; any single critical component is separately
// allowed to force RED in classify, so the weights only shape the
// healthy-to-degraded gradient.
const (
	weightUtilization = 0.15
	weightCoverage    = 0.30
	weightRt          = 0.20
	weightSPC         = 0.25
	weightPeriodicity = 0.10
)

func (s *Service) classify(state model.ScheduleState, utilization, coverage float64, rt *model.RtEstimate, spcStatus spc.Status, periodicity float64) (float64, DefenseLevel) {
	utilScore := 1 - clamp01(math.Abs(utilization-0.75)/0.75)
	covScore := clamp01(coverage)

	rtScore := 1.0
	rtCritical := false
	if rt != nil {
		if rt.RtMean > 1 {
			rtScore = clamp01(1 - (rt.RtMean - 1))
		}
		rtCritical = rt.Interpretation == model.RtGrowing && rt.RtMean > 1.5
	}

	spcScore := 1.0
	switch spcStatus {
	case spc.StatusStable:
		spcScore = 0.9
	case spc.StatusWarning:
		spcScore = 0.6
	case spc.StatusOutOfControl:
		spcScore = 0
	}

	// A regular cadence is a healthy sign but a weak one; an aperiodic
	// signal alone should not drag an otherwise healthy schedule down.
	periodScore := 0.5 + clamp01(periodicity)/2

	unified := weightUtilization*utilScore +
		weightCoverage*covScore +
		weightRt*rtScore +
		weightSPC*spcScore +
		weightPeriodicity*periodScore

	critical := spcStatus == spc.StatusOutOfControl || rtCritical || covScore < 0.5
	if critical && unified >= 0.5 {
		unified = 0.45
	}

	allHealthy := spcStatus == spc.StatusInControl && !rtCritical && covScore >= 0.9 && state.ACGMECompliant

	switch {
	case !state.ACGMECompliant:
		// a tier-1 violation that survived into the authoritative state
		// has, by definition, persisted past a checkpoint.
		return unified, DefenseRed
	case unified < 0.5:
		return unified, DefenseRed
	case unified < 0.7 || spcStatus == spc.StatusOutOfControl:
		return unified, DefenseOrange
	case unified <= 0.85 || !allHealthy:
		return unified, DefenseYellow
	default:
		return unified, DefenseGreen
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
