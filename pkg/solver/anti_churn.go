// Package solver implements SolverDispatcher: pluggable assignment-search
// backends dispatched by problem complexity, plus the anti-churn objective
// used to score solved assignment sets and proposed drafts against the
// current authoritative schedule. The backends' search does not consult it.
package solver

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/model"
)

// Severity classifies how disruptive a candidate assignment set is
// relative to a reference, by rigidity (1 - normalized distance).
type Severity string

const (
	SeverityMinimal  Severity = "minimal"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Impact is the result of AntiChurnObjective.EstimateImpact.
type Impact struct {
	Severity            Severity
	AffectedPeopleCount int
	ChangeCount         int
	Recommendation      string
}

// AntiChurnObjective computes the Hamming-style distance between two
// assignment sets and derived rigidity/impact metrics.
type AntiChurnObjective struct{}

// Distance counts (person, block) pairs whose template differs between a
// and b, including pairs present in one set but absent from the other.
func (AntiChurnObjective) Distance(a, b []model.Assignment) int {
	aIdx := indexByKey(a)
	bIdx := indexByKey(b)

	seen := sets.New[model.AssignmentKey]()
	distance := 0
	for key, aTemplate := range aIdx {
		seen.Insert(key)
		bTemplate, ok := bIdx[key]
		if !ok || bTemplate != aTemplate {
			distance++
		}
	}
	for key := range bIdx {
		if !seen.Has(key) {
			distance++
		}
	}
	return distance
}

// Rigidity returns 1 - distance/maxPossibleChanges, where maxPossibleChanges
// is the size of the union of (person, block) pairs across both sets.
// Returns 1 (perfectly rigid / unchanged) when the union is empty.
func (o AntiChurnObjective) Rigidity(a, b []model.Assignment) float64 {
	maxPossible := unionSize(a, b)
	if maxPossible == 0 {
		return 1
	}
	return 1 - float64(o.Distance(a, b))/float64(maxPossible)
}

// EstimateImpact classifies the disruption of b relative to a.
func (o AntiChurnObjective) EstimateImpact(a, b []model.Assignment) Impact {
	rigidity := o.Rigidity(a, b)
	changes := o.PerPersonChanges(a, b)

	affected := 0
	total := 0
	for _, count := range changes {
		if count > 0 {
			affected++
		}
		total += count
	}

	severity, recommendation := classifyRigidity(rigidity)
	return Impact{
		Severity:            severity,
		AffectedPeopleCount: affected,
		ChangeCount:         total,
		Recommendation:      recommendation,
	}
}

func classifyRigidity(rigidity float64) (Severity, string) {
	switch {
	case rigidity >= 0.95:
		return SeverityMinimal, "safe to advance without additional review"
	case rigidity >= 0.85:
		return SeverityLow, "routine review recommended before advancing"
	case rigidity >= 0.70:
		return SeverityModerate, "notify affected people before advancing"
	case rigidity >= 0.50:
		return SeverityHigh, "coordinator sign-off recommended before advancing"
	default:
		return SeverityCritical, "treat as a full re-plan; confirm with affected people individually"
	}
}

// PerPersonChanges returns, for every person with at least one change, the
// number of (person, block) pairs whose template differs between the two
// sets, counting pairs present in only one set; people with no change have
// no entry.
func (AntiChurnObjective) PerPersonChanges(a, b []model.Assignment) map[string]int {
	aIdx := indexByKey(a)
	bIdx := indexByKey(b)

	counts := make(map[string]int)
	seen := sets.New[model.AssignmentKey]()
	for key, aTemplate := range aIdx {
		seen.Insert(key)
		if bTemplate, ok := bIdx[key]; !ok || bTemplate != aTemplate {
			counts[key.PersonID]++
		}
	}
	for key := range bIdx {
		if !seen.Has(key) {
			counts[key.PersonID]++
		}
	}
	return counts
}

func indexByKey(assignments []model.Assignment) map[model.AssignmentKey]string {
	idx := make(map[model.AssignmentKey]string, len(assignments))
	for _, a := range assignments {
		idx[a.Key()] = a.RotationTemplateID
	}
	return idx
}

func unionSize(a, b []model.Assignment) int {
	keys := sets.New[model.AssignmentKey]()
	for _, x := range a {
		keys.Insert(x.Key())
	}
	for _, x := range b {
		keys.Insert(x.Key())
	}
	return keys.Len()
}
