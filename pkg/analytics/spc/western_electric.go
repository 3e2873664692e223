package spc

import "github.com/meridian-health/resicore/pkg/model"

// RuleSeverity classifies how serious a Western Electric rule violation is.
type RuleSeverity string

const (
	SeverityCritical RuleSeverity = "critical"
	SeverityWarning  RuleSeverity = "warning"
	SeverityInfo     RuleSeverity = "info"
)

// RuleViolation is one triggered Western Electric rule.
type RuleViolation struct {
	RuleNumber     int
	Severity       RuleSeverity
	PointsInvolved []int
}

var ruleSeverity = map[int]RuleSeverity{
	1: SeverityCritical,
	2: SeverityCritical,
	3: SeverityWarning,
	4: SeverityWarning,
	5: SeverityWarning,
	6: SeverityInfo,
	7: SeverityInfo,
	8: SeverityWarning,
}

// CheckAllRules evaluates all eight Western Electric rules against the
// accumulated series of points, each classified against baseline.
func CheckAllRules(points []model.ControlChartPoint, baseline Baseline) []RuleViolation {
	var out []RuleViolation
	out = append(out, rule1(points)...)
	out = append(out, rule2(points, baseline)...)
	out = append(out, rule3(points, baseline)...)
	out = append(out, rule4(points, baseline)...)
	out = append(out, rule5(points)...)
	out = append(out, rule6(points)...)
	out = append(out, rule7(points, baseline)...)
	out = append(out, rule8(points, baseline)...)
	return out
}

func violation(rule int, points ...int) RuleViolation {
	return RuleViolation{RuleNumber: rule, Severity: ruleSeverity[rule], PointsInvolved: points}
}

func sigmaDistance(p model.ControlChartPoint, baseline Baseline) float64 {
	if baseline.Sigma == 0 {
		return 0
	}
	return (p.Value - baseline.Mean) / baseline.Sigma
}

// rule1: a single point beyond 3 sigma.
func rule1(points []model.ControlChartPoint) []RuleViolation {
	var out []RuleViolation
	for i, p := range points {
		if p.Zone == model.ZoneOut {
			out = append(out, violation(1, i))
		}
	}
	return out
}

// rule2: 2 of 3 consecutive points beyond 2 sigma on the same side.
func rule2(points []model.ControlChartPoint, baseline Baseline) []RuleViolation {
	return slidingSameSideCount(points, baseline, 2, 3, 2, 2)
}

// rule3: 4 of 5 consecutive points beyond 1 sigma on the same side.
func rule3(points []model.ControlChartPoint, baseline Baseline) []RuleViolation {
	return slidingSameSideCount(points, baseline, 3, 5, 4, 1)
}

func slidingSameSideCount(points []model.ControlChartPoint, baseline Baseline, ruleNumber, window, required int, sigmaThreshold float64) []RuleViolation {
	var out []RuleViolation
	if len(points) < window {
		return out
	}
	for start := 0; start+window <= len(points); start++ {
		pos, neg := 0, 0
		for k := 0; k < window; k++ {
			d := sigmaDistance(points[start+k], baseline)
			if d >= sigmaThreshold {
				pos++
			} else if d <= -sigmaThreshold {
				neg++
			}
		}
		if pos >= required {
			out = append(out, violation(ruleNumber, sameSideIndexes(points, baseline, start, window, true)...))
		}
		if neg >= required {
			out = append(out, violation(ruleNumber, sameSideIndexes(points, baseline, start, window, false)...))
		}
	}
	return out
}

func sameSideIndexes(points []model.ControlChartPoint, baseline Baseline, start, window int, positive bool) []int {
	var idxs []int
	for k := 0; k < window; k++ {
		idx := start + k
		d := sigmaDistance(points[idx], baseline)
		if (positive && d > 0) || (!positive && d < 0) {
			idxs = append(idxs, idx)
		}
	}
	return idxs
}

// rule4: 8 consecutive points on the same side of the center line.
func rule4(points []model.ControlChartPoint, baseline Baseline) []RuleViolation {
	return runLengthRule(points, 4, 8, func(p model.ControlChartPoint, prevSign int) (int, bool) {
		s := sign(p.Value - baseline.Mean)
		return s, s != 0 && s == prevSign
	})
}

// rule5: 6 consecutive points steadily increasing or steadily decreasing.
func rule5(points []model.ControlChartPoint) []RuleViolation {
	var out []RuleViolation
	const run = 6
	if len(points) < run {
		return out
	}
	for start := 0; start+run <= len(points); start++ {
		increasing, decreasing := true, true
		for k := 1; k < run; k++ {
			if points[start+k].Value <= points[start+k-1].Value {
				increasing = false
			}
			if points[start+k].Value >= points[start+k-1].Value {
				decreasing = false
			}
		}
		if increasing || decreasing {
			out = append(out, violation(5, indexRange(start, run)...))
		}
	}
	return out
}

// rule6: 15 consecutive points within 1 sigma of the center line (either side).
func rule6(points []model.ControlChartPoint) []RuleViolation {
	var out []RuleViolation
	const run = 15
	if len(points) < run {
		return out
	}
	for start := 0; start+run <= len(points); start++ {
		allWithinOne := true
		for k := 0; k < run; k++ {
			if points[start+k].Zone != model.ZoneA {
				allWithinOne = false
				break
			}
		}
		if allWithinOne {
			out = append(out, violation(6, indexRange(start, run)...))
		}
	}
	return out
}

// rule7: 14 consecutive points alternating up and down.
func rule7(points []model.ControlChartPoint, _ Baseline) []RuleViolation {
	var out []RuleViolation
	const run = 14
	if len(points) < run {
		return out
	}
	for start := 0; start+run <= len(points); start++ {
		alternating := true
		for k := 2; k < run; k++ {
			d1 := points[start+k].Value - points[start+k-1].Value
			d2 := points[start+k-1].Value - points[start+k-2].Value
			if d1 == 0 || d2 == 0 || (d1 > 0) == (d2 > 0) {
				alternating = false
				break
			}
		}
		if alternating {
			out = append(out, violation(7, indexRange(start, run)...))
		}
	}
	return out
}

// rule8: 8 consecutive points beyond 1 sigma on either side (none within 1 sigma).
func rule8(points []model.ControlChartPoint, baseline Baseline) []RuleViolation {
	var out []RuleViolation
	const run = 8
	if len(points) < run {
		return out
	}
	for start := 0; start+run <= len(points); start++ {
		allBeyondOne := true
		for k := 0; k < run; k++ {
			if absFloat(sigmaDistance(points[start+k], baseline)) <= 1 {
				allBeyondOne = false
				break
			}
		}
		if allBeyondOne {
			out = append(out, violation(8, indexRange(start, run)...))
		}
	}
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func indexRange(start, length int) []int {
	out := make([]int, length)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func runLengthRule(points []model.ControlChartPoint, ruleNumber, run int, step func(p model.ControlChartPoint, prevSign int) (int, bool)) []RuleViolation {
	var out []RuleViolation
	if len(points) < run {
		return out
	}
	for start := 0; start+run <= len(points); start++ {
		prevSign := 0
		ok := true
		for k := 0; k < run; k++ {
			s, matches := step(points[start+k], prevSign)
			if k > 0 && !matches {
				ok = false
				break
			}
			prevSign = s
		}
		if ok {
			out = append(out, violation(ruleNumber, indexRange(start, run)...))
		}
	}
	return out
}
