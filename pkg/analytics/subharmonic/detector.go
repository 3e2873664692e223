package subharmonic

// StrengthTrend classifies how periodicity strength has moved between two
// reports.
type StrengthTrend string

const (
	TrendImproving StrengthTrend = "improving"
	TrendStable    StrengthTrend = "stable"
	TrendWorsening StrengthTrend = "worsening"
)

// Comparison is the result of comparing a new report to the previous one.
type Comparison struct {
	StrengthChange float64
	NewCycles      []int
	StrengthTrend  StrengthTrend
}

const stabilityWindow = 5
const trendEpsilon = 0.02

// Detector is a stateful SubharmonicDetector: it retains prior reports so
// callers can track whether periodicity is getting stronger or weaker
// over successive analyses.
type Detector struct {
	Options Options
	history []PeriodicityReport
}

// NewDetector constructs a Detector with the given analysis options.
func NewDetector(opts Options) *Detector {
	return &Detector{Options: opts}
}

// Analyze runs AnalyzePeriodicity and records the report in history.
func (d *Detector) Analyze(series []float64) PeriodicityReport {
	report := AnalyzePeriodicity(series, d.Options)
	d.history = append(d.history, report)
	return report
}

// CompareToPrevious compares report against the last recorded report
// before it (if any).
func (d *Detector) CompareToPrevious(report PeriodicityReport) Comparison {
	if len(d.history) < 2 {
		return Comparison{StrengthTrend: TrendStable, NewCycles: report.SubharmonicPeriods}
	}
	previous := d.history[len(d.history)-2]

	change := report.PeriodicityStrength - previous.PeriodicityStrength
	trend := TrendStable
	switch {
	case change > trendEpsilon:
		trend = TrendImproving
	case change < -trendEpsilon:
		trend = TrendWorsening
	}

	prevSet := make(map[int]bool, len(previous.SubharmonicPeriods))
	for _, p := range previous.SubharmonicPeriods {
		prevSet[p] = true
	}
	var newCycles []int
	for _, p := range report.SubharmonicPeriods {
		if !prevSet[p] {
			newCycles = append(newCycles, p)
		}
	}

	return Comparison{StrengthChange: change, NewCycles: newCycles, StrengthTrend: trend}
}

// StabilityScore is a smoothed mean of recent periodicity strengths,
// in [0, 1].
func (d *Detector) StabilityScore() float64 {
	if len(d.history) == 0 {
		return 0
	}
	start := len(d.history) - stabilityWindow
	if start < 0 {
		start = 0
	}
	window := d.history[start:]

	var sum float64
	for _, r := range window {
		sum += r.PeriodicityStrength
	}
	return sum / float64(len(window))
}
