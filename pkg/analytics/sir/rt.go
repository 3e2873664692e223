package sir

import (
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/meridian-health/resicore/pkg/model"
)

// SerialInterval parameterizes the discretized Gamma serial-interval
// distribution the Cori estimator convolves incidence against.
type SerialInterval struct {
	MeanDays float64
	StdDays  float64
}

// DefaultSerialInterval is a 7-day mean, 3-day std serial interval.
var DefaultSerialInterval = SerialInterval{MeanDays: 7, StdDays: 3}

// weights returns the discretized Gamma(mean, std) pmf over lags 1..horizon,
// normalized to sum to 1.
func (si SerialInterval) weights(horizon int) []float64 {
	shape := (si.MeanDays / si.StdDays) * (si.MeanDays / si.StdDays)
	scale := (si.StdDays * si.StdDays) / si.MeanDays

	raw := lo.Map(lo.Range(horizon), func(idx, _ int) float64 {
		lag := float64(idx + 1)
		return gammaPDF(lag, shape, scale)
	})
	total := lo.Sum(raw)
	if total <= 0 {
		return raw
	}
	return lo.Map(raw, func(v float64, _ int) float64 { return v / total })
}

func gammaPDF(x, shape, scale float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Exp((shape-1)*math.Log(x) - x/scale - lgamma(shape) - shape*math.Log(scale))
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// Estimator implements the Cori-method effective reproduction number
// estimator over a daily incidence sequence.
type Estimator struct {
	SerialInterval SerialInterval
	Window         int
}

// NewEstimator constructs an Estimator; window defaults to 7 if <= 0.
func NewEstimator(si SerialInterval, window int) Estimator {
	if window <= 0 {
		window = 7
	}
	return Estimator{SerialInterval: si, Window: window}
}

// CalculateRt produces one RtEstimate per day t >= window, given a daily
// incidence sequence and the calendar date of incidence[0]; days whose
// window carries zero infectiousness are skipped.
func (e Estimator) CalculateRt(incidence []float64, start time.Time) []model.RtEstimate {
	if len(incidence) <= e.Window {
		return nil
	}
	horizon := len(incidence) - 1
	w := e.SerialInterval.weights(horizon)

	infectiousness := make([]float64, len(incidence))
	for t := range incidence {
		var lambda float64
		for s := 1; s <= t && s-1 < len(w); s++ {
			lambda += w[s-1] * incidence[t-s]
		}
		infectiousness[t] = lambda
	}

	const priorAlpha, priorBeta = 1.0, 0.0

	out := make([]model.RtEstimate, 0, len(incidence)-e.Window)
	for t := e.Window; t < len(incidence); t++ {
		var incSum, lambdaSum float64
		for u := t - e.Window + 1; u <= t; u++ {
			incSum += incidence[u]
			lambdaSum += infectiousness[u]
		}

		alpha := priorAlpha + incSum
		beta := priorBeta + lambdaSum
		if beta <= 0 {
			continue
		}

		mean := alpha / beta
		lower, upper := gammaCI95(alpha, beta)

		out = append(out, model.RtEstimate{
			Date:           start.AddDate(0, 0, t),
			RtMean:         mean,
			RtLower:        lower,
			RtUpper:        upper,
			Confidence:     0.95,
			Interpretation: interpret(lower, upper),
		})
	}
	return out
}

func interpret(lower, upper float64) model.RtInterpretation {
	switch {
	case upper < 0.9:
		return model.RtDeclining
	case lower > 1.1:
		return model.RtGrowing
	default:
		return model.RtStable
	}
}

// gammaCI95 approximates the 2.5/97.5 percentiles of Gamma(alpha, rate=beta)
// via the Wilson-Hilferty cube-root normal approximation, adequate for the
// alpha/beta magnitudes produced by daily incidence windows.
func gammaCI95(alpha, beta float64) (lower, upper float64) {
	const z = 1.959964
	h := 1 - 1/(9*alpha)
	root := math.Sqrt(1 / (9 * alpha))

	low := alpha * math.Pow(h-z*root, 3)
	hi := alpha * math.Pow(h+z*root, 3)
	if low < 0 {
		low = 0
	}
	return low / beta, hi / beta
}

// RtFromR0 converts a basic reproduction number into an effective one given
// the current susceptible fraction S/N.
func RtFromR0(r0, s, n float64) float64 {
	if n <= 0 {
		return 0
	}
	return r0 * s / n
}

// ControlAssessment reports whether Rt has been reliably suppressed.
type ControlAssessment struct {
	IsControlled bool
	Trend        string // improving, worsening, flat
	Assessment   string
}

// AssessControl looks at the current Rt estimate plus history and reports
// whether control (Rt sustained below 1) has been achieved.
func AssessControl(current model.RtEstimate, history []model.RtEstimate, minDaysBelowOne int) ControlAssessment {
	belowOne := 0
	for i := len(history) - 1; i >= 0 && belowOne < minDaysBelowOne; i-- {
		if history[i].RtUpper < 1.0 {
			belowOne++
		} else {
			break
		}
	}
	isControlled := current.RtUpper < 1.0 && belowOne >= minDaysBelowOne

	trend := "flat"
	if len(history) > 0 {
		prev := history[len(history)-1]
		switch {
		case current.RtMean < prev.RtMean-0.01:
			trend = "improving"
		case current.RtMean > prev.RtMean+0.01:
			trend = "worsening"
		}
	}

	assessment := "rt is stable"
	switch {
	case isControlled:
		assessment = "rt has been sustained below 1"
	case current.Interpretation == model.RtGrowing:
		assessment = "rt is trending upward"
	case current.Interpretation == model.RtDeclining:
		assessment = "rt is trending downward but not yet controlled"
	}

	return ControlAssessment{IsControlled: isControlled, Trend: trend, Assessment: assessment}
}
