package constraints

import (
	"sort"
	"time"

	"github.com/meridian-health/resicore/pkg/model"
)

// assignmentsByPerson groups assignments by person id.
func assignmentsByPerson(assignments []model.Assignment) map[string][]model.Assignment {
	out := make(map[string][]model.Assignment, len(assignments))
	for _, a := range assignments {
		out[a.PersonID] = append(out[a.PersonID], a)
	}
	return out
}

// assignmentsByBlock groups assignments by block id.
func assignmentsByBlock(assignments []model.Assignment) map[string][]model.Assignment {
	out := make(map[string][]model.Assignment, len(assignments))
	for _, a := range assignments {
		out[a.BlockID] = append(out[a.BlockID], a)
	}
	return out
}

// sortedPersonBlocks returns a's blocks sorted by date, alongside the block
// records themselves, skipping any assignment whose block is unknown.
func sortedPersonBlocks(personAssignments []model.Assignment, blockByID map[string]model.Block) []model.Block {
	blocks := make([]model.Block, 0, len(personAssignments))
	for _, a := range personAssignments {
		if b, ok := blockByID[a.BlockID]; ok {
			blocks = append(blocks, b)
		}
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Date.Before(blocks[j].Date) })
	return blocks
}

// rollingWindowHours sums Hours for assignments whose block falls within
// [windowStart, windowEnd), for the given person's assignments.
func rollingWindowHours(personAssignments []model.Assignment, blockByID map[string]model.Block, windowStart, windowEnd time.Time) float64 {
	var total float64
	for _, a := range personAssignments {
		b, ok := blockByID[a.BlockID]
		if !ok {
			continue
		}
		if !b.Date.Before(windowStart) && b.Date.Before(windowEnd) {
			total += a.Hours
		}
	}
	return total
}

// gini computes the Gini coefficient of a non-negative value distribution.
// Returns 0 for fewer than 2 values or an all-zero distribution.
func gini(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	return (2*weighted)/(float64(n)*sum) - float64(n+1)/float64(n)
}

// consecutiveRuns splits a date-sorted block list into runs where each
// block's date is at most one day after the previous block's date, so
// blocks sharing a date stay in the same run.
func consecutiveRuns(blocks []model.Block) [][]model.Block {
	if len(blocks) == 0 {
		return nil
	}
	var runs [][]model.Block
	current := []model.Block{blocks[0]}
	for i := 1; i < len(blocks); i++ {
		prev, cur := blocks[i-1], blocks[i]
		if cur.Date.Sub(prev.Date) <= 24*time.Hour {
			current = append(current, cur)
		} else {
			runs = append(runs, current)
			current = []model.Block{cur}
		}
	}
	runs = append(runs, current)
	return runs
}
