// Package subharmonic detects cyclic patterns in schedule-derived time
// series (coverage counts, hours, on/off indicators) via autocorrelation,
// flagging cycle lengths that are integer multiples of a base period such
// as the weekly or ACGME 4-week cadence.
package subharmonic

import (
	"math"
	"sort"
)

const (
	defaultBasePeriod    = 7
	defaultMinSignificance = 0.3
	peakToleranceDays    = 1
)

// namedPatterns maps a period (in days) to its human label.
var namedPatterns = map[int]string{
	7:  "weekly",
	14: "biweekly alternation",
	21: "triweekly",
	28: "ACGME 4-week",
	56: "2-month",
	84: "quarterly",
}

// PeriodicityReport is the output of one analyze_periodicity call.
type PeriodicityReport struct {
	FundamentalPeriod   int
	SubharmonicPeriods  []int
	PeriodicityStrength float64
	Autocorrelation     []float64
	DetectedPatterns    []string
	Recommendations     []string
}

// Options configures one analysis run.
type Options struct {
	BasePeriod      int
	MaxPeriod       int
	MinSignificance float64
}

func (o Options) withDefaults(seriesLen int) Options {
	if o.BasePeriod <= 0 {
		o.BasePeriod = defaultBasePeriod
	}
	if o.MaxPeriod <= 0 {
		o.MaxPeriod = seriesLen / 2
		if o.MaxPeriod < o.BasePeriod {
			o.MaxPeriod = o.BasePeriod
		}
	}
	if o.MinSignificance <= 0 {
		o.MinSignificance = defaultMinSignificance
	}
	return o
}

// AnalyzePeriodicity centers the signal, computes its autocorrelation,
// and reports integer-multiple-of-base-period cycles.
func AnalyzePeriodicity(series []float64, opts Options) PeriodicityReport {
	opts = opts.withDefaults(len(series))
	centered := center(series)
	acf := autocorrelation(centered, opts.MaxPeriod)

	peaks := findPeaks(acf, opts.MinSignificance, opts.BasePeriod/2)
	subharmonics := retainMultiples(peaks, opts.BasePeriod, peakToleranceDays)

	strength := periodicityStrength(peaks, len(series))

	fundamental := opts.BasePeriod
	if len(subharmonics) > 0 {
		fundamental = subharmonics[0]
	}

	patterns := make([]string, 0, len(subharmonics))
	for _, p := range subharmonics {
		if name, ok := namedPatterns[p]; ok {
			patterns = append(patterns, name)
		}
	}

	return PeriodicityReport{
		FundamentalPeriod:   fundamental,
		SubharmonicPeriods:  subharmonics,
		PeriodicityStrength: strength,
		Autocorrelation:     acf,
		DetectedPatterns:    patterns,
		Recommendations:     recommendations(subharmonics, strength),
	}
}

func center(series []float64) []float64 {
	if len(series) == 0 {
		return series
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(len(series))

	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = v - mean
	}
	return out
}

// autocorrelation computes the biased ACF at lags 0..maxLag, normalized so
// ACF[0] = 1.
func autocorrelation(centered []float64, maxLag int) []float64 {
	n := len(centered)
	if n == 0 {
		return nil
	}
	var variance float64
	for _, v := range centered {
		variance += v * v
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	out := make([]float64, maxLag+1)
	if variance == 0 {
		out[0] = 1
		return out
	}
	for lag := 0; lag <= maxLag; lag++ {
		var sum float64
		for t := 0; t+lag < n; t++ {
			sum += centered[t] * centered[t+lag]
		}
		out[lag] = sum / variance
	}
	return out
}

type peak struct {
	lag    int
	height float64
}

func findPeaks(acf []float64, minSignificance float64, minDistance int) []peak {
	if minDistance < 1 {
		minDistance = 1
	}
	var candidates []peak
	for k := 1; k < len(acf)-1; k++ {
		if acf[k] < minSignificance {
			continue
		}
		if acf[k] >= acf[k-1] && acf[k] >= acf[k+1] {
			candidates = append(candidates, peak{lag: k, height: acf[k]})
		}
	}
	// last point can also be a peak if still rising into the boundary.
	if len(acf) >= 2 {
		last := len(acf) - 1
		if acf[last] >= minSignificance && acf[last] >= acf[last-1] {
			candidates = append(candidates, peak{lag: last, height: acf[last]})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].height > candidates[j].height })

	var kept []peak
	for _, c := range candidates {
		tooClose := false
		for _, k := range kept {
			if abs(c.lag-k.lag) < minDistance {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, c)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].lag < kept[j].lag })
	return kept
}

func retainMultiples(peaks []peak, basePeriod, tolerance int) []int {
	var out []int
	seen := map[int]bool{}
	for _, p := range peaks {
		nearest := int(math.Round(float64(p.lag)/float64(basePeriod))) * basePeriod
		if nearest == 0 {
			continue
		}
		if abs(p.lag-nearest) <= tolerance && !seen[nearest] {
			out = append(out, nearest)
			seen[nearest] = true
		}
	}
	sort.Ints(out)
	return out
}

// periodicityStrength scores how strongly the signal repeats at its
// dominant autocorrelation peak. The biased ACF divides by the full
// series energy, so even a perfectly periodic signal scores only
// (n-lag)/n at its period; rescaling by n/(n-lag) recovers the unbiased
// estimate, which reaches 1 for a clean cycle regardless of how few
// repetitions fit the window. Returns 0 when no peak was found.
func periodicityStrength(peaks []peak, n int) float64 {
	best := 0.0
	for _, p := range peaks {
		if p.lag >= n {
			continue
		}
		unbiased := p.height * float64(n) / float64(n-p.lag)
		if unbiased > best {
			best = unbiased
		}
	}
	if best > 1 {
		return 1
	}
	if best < 0 {
		return 0
	}
	return best
}

func recommendations(subharmonics []int, strength float64) []string {
	var out []string
	for _, p := range subharmonics {
		if name, ok := namedPatterns[p]; ok {
			out = append(out, "monitor the "+name+" cycle for recurring coverage strain")
		}
	}
	if strength > 0.9 && len(subharmonics) == 0 {
		out = append(out, "signal is strongly periodic but at a period outside named patterns")
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
