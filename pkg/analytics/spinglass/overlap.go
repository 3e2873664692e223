package spinglass

import (
	"github.com/meridian-health/resicore/pkg/model"
)

// ParisiOverlap returns the normalized count of (person, block) pairs
// that carry an identical rotation template in both a and b: 1 when the
// two assignment sets are identical, 0 when they share no (person,
// block, template) triple.
func ParisiOverlap(a, b []model.Assignment) float64 {
	aIdx := make(map[model.AssignmentKey]string, len(a))
	for _, assignment := range a {
		aIdx[assignment.Key()] = assignment.RotationTemplateID
	}

	union := make(map[model.AssignmentKey]struct{}, len(a)+len(b))
	for _, assignment := range a {
		union[assignment.Key()] = struct{}{}
	}
	matches := 0
	for _, assignment := range b {
		union[assignment.Key()] = struct{}{}
		if template, ok := aIdx[assignment.Key()]; ok && template == assignment.RotationTemplateID {
			matches++
		}
	}
	if len(union) == 0 {
		return 1
	}
	return float64(matches) / float64(len(union))
}

// SymmetryAnalysis is the result of ReplicaSymmetryAnalysis.
type SymmetryAnalysis struct {
	OverlapMatrix       [][]float64
	MeanOverlap         float64
	RSBOrderParameter   float64
	DiversityScore      float64
	OverlapDistribution []float64
}

// ReplicaSymmetryAnalysis computes the pairwise Parisi overlap between
// every pair of replicas. A tightly clustered overlap distribution (low
// RSBOrderParameter) indicates the replicas agree on one dominant
// ground state; a spread-out distribution indicates replica symmetry
// breaking, i.e. multiple, qualitatively different near-optimal
// schedules coexist.
func ReplicaSymmetryAnalysis(replicas []model.ReplicaSchedule) SymmetryAnalysis {
	n := len(replicas)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	var offDiagonal []float64
	for i := 0; i < n; i++ {
		matrix[i][i] = 1
		for j := i + 1; j < n; j++ {
			overlap := ParisiOverlap(replicas[i].Assignments, replicas[j].Assignments)
			matrix[i][j] = overlap
			matrix[j][i] = overlap
			offDiagonal = append(offDiagonal, overlap)
		}
	}

	mean := meanOf(offDiagonal)
	variance := varianceOf(offDiagonal, mean)

	return SymmetryAnalysis{
		OverlapMatrix:       matrix,
		MeanOverlap:         mean,
		RSBOrderParameter:   variance,
		DiversityScore:      1 - mean,
		OverlapDistribution: offDiagonal,
	}
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 1
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func varianceOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
