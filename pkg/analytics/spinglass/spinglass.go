// Package spinglass treats each (person, block) assignment choice as a
// spin and each pairwise constraint as a coupling, borrowing spin-glass
// frustration and replica-ensemble machinery to surface constraint
// conflicts that a flat violation count would hide.
package spinglass

import (
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/constraints"
	"github.com/meridian-health/resicore/pkg/model"
)

// DefaultFrustrationClusterThreshold is the default pairwise coupling
// frustration above which two constraints are grouped into a cluster.
const DefaultFrustrationClusterThreshold = 0.5

// Analyzer computes frustration, replica ensembles, and overlap metrics
// against a constraint catalog.
type Analyzer struct {
	Catalog *constraints.Catalog
}

// NewAnalyzer returns an Analyzer backed by catalog.
func NewAnalyzer(catalog *constraints.Catalog) *Analyzer {
	return &Analyzer{Catalog: catalog}
}

// locus is the set of (person, block) identifiers a constraint's
// violations touch, used as the proxy for "what does this constraint
// couple to" when no explicit coupling graph is configured.
type locus struct {
	people sets.Set[string]
	blocks sets.Set[string]
}

func (a *Analyzer) violationLocus(name string, assignments []model.Assignment, ctx *model.SchedulingContext) (locus, error) {
	violations, err := a.Catalog.EvaluateOne(name, assignments, ctx)
	if err != nil {
		return locus{}, err
	}
	people := sets.New[string]()
	blocks := sets.New[string]()
	for _, v := range violations {
		if v.People != nil {
			people = people.Union(v.People)
		}
		if v.Blocks != nil {
			blocks = blocks.Union(v.Blocks)
		}
	}
	return locus{people: people, blocks: blocks}, nil
}

// coupling returns the Jaccard overlap between two constraints' violation
// loci: the fraction of the (person, block) identifiers either constraint
// touches that both touch. Two constraints with disjoint loci cannot be
// simultaneously frustrated by the same entity and score 0; identical
// loci score 1.
func coupling(a, b locus) float64 {
	union := a.people.Union(b.people).Len() + a.blocks.Union(b.blocks).Len()
	if union == 0 {
		return 0
	}
	intersection := a.people.Intersection(b.people).Len() + a.blocks.Intersection(b.blocks).Len()
	return float64(intersection) / float64(union)
}

// couplingMatrix evaluates every name in names against assignments/ctx and
// returns the pairwise Jaccard coupling, keyed both ways for convenient
// lookup.
func (a *Analyzer) couplingMatrix(assignments []model.Assignment, ctx *model.SchedulingContext, names []string) (map[string]map[string]float64, error) {
	loci := make(map[string]locus, len(names))
	for _, name := range names {
		l, err := a.violationLocus(name, assignments, ctx)
		if err != nil {
			return nil, err
		}
		loci[name] = l
	}

	matrix := make(map[string]map[string]float64, len(names))
	for _, name := range names {
		matrix[name] = make(map[string]float64, len(names))
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			c := coupling(loci[names[i]], loci[names[j]])
			matrix[names[i]][names[j]] = c
			matrix[names[j]][names[i]] = c
		}
	}
	return matrix, nil
}

// FrustrationIndex scores, in [0,1], how strongly the constraints among
// names conflict, derived from the Jaccard coupling matrix of their
// violation loci.
//
// The index must never decrease when a constraint is added, and the
// literal "count of frustrated pairs / total pairs" ratio breaks that:
// a newly added constraint that is frustrated with none of the others
// grows the denominator without growing the numerator, so the fraction
// can fall. Instead each constraint's
// contribution is its strongest coupling with any other constraint in
// names, combined via a noisy-OR: frustration_index = 1 - Π(1 -
// contribution_i). Adding a constraint can only introduce new coupling
// terms, which can only raise (never lower) an existing contribution_i,
// so each (1 - contribution_i) factor can only shrink and the product
// can only shrink, making the index monotonically non-decreasing by
// construction.
func (a *Analyzer) FrustrationIndex(assignments []model.Assignment, ctx *model.SchedulingContext, names []string) (float64, error) {
	if len(names) < 2 {
		return 0, nil
	}
	matrix, err := a.couplingMatrix(assignments, ctx, names)
	if err != nil {
		return 0, err
	}

	product := 1.0
	for _, name := range names {
		contribution := 0.0
		for other, c := range matrix[name] {
			if other == name {
				continue
			}
			if c > contribution {
				contribution = c
			}
		}
		product *= 1 - contribution
	}
	return 1 - product, nil
}

// GlassTransitionThreshold estimates the constraint density (as a
// fraction of len(names)) above which frustration_index grows
// super-linearly, by bisecting over synthetic prefixes of names of
// increasing size.
func (a *Analyzer) GlassTransitionThreshold(assignments []model.Assignment, ctx *model.SchedulingContext, names []string) (float64, error) {
	if len(names) < 3 {
		return 0, nil
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	frustrationAt := func(count int) (float64, error) {
		return a.FrustrationIndex(assignments, ctx, sorted[:count])
	}

	// A count k exhibits super-linear growth if the marginal increase
	// from k-1 to k exceeds the marginal increase from k-2 to k-1.
	// Bisect over k to find the first such point rather than scanning
	// every count linearly.
	lo, hi := 2, len(sorted)
	firstSuperLinear := len(sorted)
	for lo <= hi {
		mid := (lo + hi) / 2
		superLinear, err := isSuperLinearAt(mid, sorted, frustrationAt)
		if err != nil {
			return 0, err
		}
		if superLinear {
			firstSuperLinear = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return float64(firstSuperLinear) / float64(len(sorted)), nil
}

func isSuperLinearAt(k int, sorted []string, frustrationAt func(int) (float64, error)) (bool, error) {
	if k < 2 || k >= len(sorted) {
		return false, nil
	}
	fPrev2, err := frustrationAt(k - 1)
	if err != nil {
		return false, err
	}
	fPrev1, err := frustrationAt(k)
	if err != nil {
		return false, err
	}
	fCurrent, err := frustrationAt(k + 1)
	if err != nil {
		return false, err
	}
	marginalBefore := fPrev1 - fPrev2
	marginalAfter := fCurrent - fPrev1
	return marginalAfter > marginalBefore, nil
}
