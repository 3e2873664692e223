package spinglass

import (
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/model"
)

// basinThreshold is the minimum Parisi overlap at which two replicas are
// considered to occupy the same energy basin.
const basinThreshold = 0.6

// EnergyLandscapeReport is the result of EnergyLandscape.
type EnergyLandscapeReport struct {
	GlobalMinimumEnergy float64
	LocalMinima         []float64
	BasinSizes          []int
	FrustrationClusters []Cluster
}

// EnergyLandscape groups replicas into basins by mutual Parisi overlap
// (replicas overlapping above basinThreshold are taken to share a
// basin), reporting each basin's lowest energy as a local minimum and
// its replica count as the basin size. FrustrationClusters is populated
// from the replicas' recorded ConstraintViolations via
// FrustrationClusters, since which constraints co-violate across the
// ensemble is itself evidence of coupling, without needing the original
// SchedulingContext.
func (a *Analyzer) EnergyLandscape(replicas []model.ReplicaSchedule) EnergyLandscapeReport {
	if len(replicas) == 0 {
		return EnergyLandscapeReport{}
	}

	basins := groupIntoBasins(replicas)

	localMinima := make([]float64, 0, len(basins))
	basinSizes := make([]int, 0, len(basins))
	global := replicas[0].Energy
	for _, basin := range basins {
		min := basin[0].Energy
		for _, entry := range basin {
			if entry.Energy < min {
				min = entry.Energy
			}
		}
		localMinima = append(localMinima, min)
		basinSizes = append(basinSizes, len(basin))
		if min < global {
			global = min
		}
	}
	sort.Float64s(localMinima)

	return EnergyLandscapeReport{
		GlobalMinimumEnergy: global,
		LocalMinima:         localMinima,
		BasinSizes:          basinSizes,
		FrustrationClusters: FrustrationClusters(replicas, DefaultFrustrationClusterThreshold),
	}
}

// groupIntoBasins runs connected-component clustering over the replica
// index set, connecting i and j when their Parisi overlap is at least
// basinThreshold.
func groupIntoBasins(replicas []model.ReplicaSchedule) [][]indexedEnergy {
	n := len(replicas)
	visited := make([]bool, n)
	var basins [][]indexedEnergy

	overlap := make([][]float64, n)
	for i := range overlap {
		overlap[i] = make([]float64, n)
		for j := range overlap[i] {
			if i == j {
				continue
			}
			overlap[i][j] = ParisiOverlap(replicas[i].Assignments, replicas[j].Assignments)
		}
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		queue := []int{start}
		visited[start] = true
		var component []indexedEnergy
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, indexedEnergy{Energy: replicas[node].Energy})
			for next := 0; next < n; next++ {
				if visited[next] || overlap[node][next] < basinThreshold {
					continue
				}
				visited[next] = true
				queue = append(queue, next)
			}
		}
		basins = append(basins, component)
	}
	return basins
}

type indexedEnergy struct {
	Energy float64
}

// Cluster is one connected component of mutually frustrated constraints,
// as emitted by FrustrationClusters.
type Cluster struct {
	Constraints           []string
	FrustrationIndex      float64
	AffectedPersons       sets.Set[string]
	AffectedBlocks        sets.Set[string]
	ConflictType          string
	ResolutionSuggestions []string
}

// FrustrationClusters groups constraints whose pairwise coupling
// frustration, estimated empirically from how often both members of a
// pair have a nonzero penalty in the same replica, exceeds threshold,
// into connected components. Each cluster's frustration_index is the
// mean pairwise coupling within the component.
func FrustrationClusters(replicas []model.ReplicaSchedule, threshold float64) []Cluster {
	names := constraintNamesIn(replicas)
	if len(names) < 2 {
		return nil
	}

	coupling := empiricalCoupling(replicas, names)
	components := connectedComponents(names, coupling, threshold)

	clusters := make([]Cluster, 0, len(components))
	for _, component := range components {
		if len(component) < 2 {
			continue
		}
		clusters = append(clusters, buildCluster(component, coupling, replicas))
	}
	return clusters
}

func constraintNamesIn(replicas []model.ReplicaSchedule) []string {
	seen := sets.New[string]()
	for _, r := range replicas {
		for name := range r.ConstraintViolations {
			seen.Insert(name)
		}
	}
	names := seen.UnsortedList()
	sort.Strings(names)
	return names
}

// empiricalCoupling estimates pairwise frustration between constraints
// as the fraction of replicas in which both constraints registered a
// nonzero penalty, i.e. how often they were simultaneously unsatisfied
// across the ensemble.
func empiricalCoupling(replicas []model.ReplicaSchedule, names []string) map[string]map[string]float64 {
	coupling := make(map[string]map[string]float64, len(names))
	for _, name := range names {
		coupling[name] = make(map[string]float64, len(names))
	}
	if len(replicas) == 0 {
		return coupling
	}

	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			coOccurrences := 0
			for _, r := range replicas {
				if r.ConstraintViolations[names[i]] > 0 && r.ConstraintViolations[names[j]] > 0 {
					coOccurrences++
				}
			}
			score := float64(coOccurrences) / float64(len(replicas))
			coupling[names[i]][names[j]] = score
			coupling[names[j]][names[i]] = score
		}
	}
	return coupling
}

func connectedComponents(names []string, coupling map[string]map[string]float64, threshold float64) [][]string {
	visited := make(map[string]bool, len(names))
	var components [][]string

	for _, start := range names {
		if visited[start] {
			continue
		}
		queue := []string{start}
		visited[start] = true
		var component []string
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, node)
			for other, score := range coupling[node] {
				if visited[other] || score <= threshold {
					continue
				}
				visited[other] = true
				queue = append(queue, other)
			}
		}
		sort.Strings(component)
		components = append(components, component)
	}
	return components
}

func buildCluster(names []string, coupling map[string]map[string]float64, replicas []model.ReplicaSchedule) Cluster {
	var pairwise []float64
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			pairwise = append(pairwise, coupling[names[i]][names[j]])
		}
	}

	people := sets.New[string]()
	blocks := sets.New[string]()
	for _, r := range replicas {
		hasAny := false
		for _, name := range names {
			if r.ConstraintViolations[name] > 0 {
				hasAny = true
				break
			}
		}
		if !hasAny {
			continue
		}
		for _, a := range r.Assignments {
			people.Insert(a.PersonID)
			blocks.Insert(a.BlockID)
		}
	}

	return Cluster{
		Constraints:           names,
		FrustrationIndex:      meanOf(pairwise),
		AffectedPersons:       people,
		AffectedBlocks:        blocks,
		ConflictType:          classifyConflict(len(names)),
		ResolutionSuggestions: resolutionSuggestions(names),
	}
}

func classifyConflict(clusterSize int) string {
	if clusterSize > 2 {
		return "multi_constraint_contention"
	}
	return "pairwise_conflict"
}

func resolutionSuggestions(names []string) []string {
	suggestions := make([]string, 0, 2)
	suggestions = append(suggestions, "relax the lowest-priority constraint among "+strings.Join(names, ", "))
	if len(names) > 2 {
		suggestions = append(suggestions, "split the affected coverage window across more people to reduce contention")
	}
	return suggestions
}
