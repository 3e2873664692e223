package solver

import (
	"context"
	"sort"
	"time"

	"github.com/meridian-health/resicore/pkg/constraints"
	"github.com/meridian-health/resicore/pkg/model"
)

// personEligible reports whether p may be assigned to template at block:
// qualified, and not under a blocking absence on the block's date.
func personEligible(p model.Person, block model.Block, template model.RotationTemplate, absences map[string][]model.Absence) bool {
	if !template.AllowsPGY(p.PGYLevel) || !p.HasCertifications(template.RequiredCertifications) {
		return false
	}
	for _, absence := range absences[p.ID] {
		if absence.Kind.Blocking() && absence.Overlaps(block.Date) {
			return false
		}
	}
	return true
}

// eligiblePeople returns the people from ctx who may be assigned to
// template at block, sorted by id for determinism.
func eligiblePeople(ctx *model.SchedulingContext, block model.Block, template model.RotationTemplate, absences map[string][]model.Absence) []model.Person {
	var out []model.Person
	for _, p := range ctx.AllPeople() {
		if personEligible(p, block, template, absences) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedBlocks(ctx *model.SchedulingContext) []model.Block {
	out := append([]model.Block(nil), ctx.Blocks...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortedTemplates(ctx *model.SchedulingContext) []model.RotationTemplate {
	out := append([]model.RotationTemplate(nil), ctx.Templates...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// greedySolve fills each block/template's coverage target with the least
// currently-loaded eligible people, in deterministic block/template order;
// rng decides the order among equally loaded candidates.
// Grounded on the bin-packing idiom of sorting candidates by a resource
// score then assigning in that fixed order.
func greedySolve(ctx *model.SchedulingContext, rng model.Rng) []model.Assignment {
	absences := ctx.AbsencesByPerson()
	hoursAssigned := make(map[string]float64)
	bookedInBlock := make(map[string]map[string]bool)

	var assignments []model.Assignment
	for _, block := range sortedBlocks(ctx) {
		booked := bookedInBlock[block.ID]
		if booked == nil {
			booked = make(map[string]bool)
			bookedInBlock[block.ID] = booked
		}
		for _, template := range sortedTemplates(ctx) {
			required := template.TargetCoverage
			if required <= 0 {
				required = template.MinCoverage
			}
			if required <= 0 {
				continue
			}
			candidates := eligiblePeople(ctx, block, template, absences)
			for i := len(candidates) - 1; i > 0; i-- {
				j := int(rng.NextU64() % uint64(i+1))
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
			sort.SliceStable(candidates, func(i, j int) bool {
				return hoursAssigned[candidates[i].ID] < hoursAssigned[candidates[j].ID]
			})
			assignedCount := 0
			for _, p := range candidates {
				if assignedCount >= required {
					break
				}
				if booked[p.ID] {
					continue
				}
				booked[p.ID] = true
				hoursAssigned[p.ID] += template.HoursPerBlock
				assignments = append(assignments, model.Assignment{
					PersonID:           p.ID,
					BlockID:            block.ID,
					RotationTemplateID: template.ID,
					Hours:              template.HoursPerBlock,
				})
				assignedCount++
			}
		}
	}
	return assignments
}

// ilpSolve runs the greedy baseline, then a bounded local search that swaps
// the people on pairs of assignments when doing so strictly narrows the
// hour gap between those two people, standing in for a branch-and-bound integer solver over the same search
// space. Deterministic given rng's seed.
func ilpSolve(ctx context.Context, schedCtx *model.SchedulingContext, rng model.Rng, deadline time.Time) ([]model.Assignment, bool) {
	return localSearch(ctx, schedCtx, greedySolve(schedCtx, rng), rng, deadline, 200)
}

// cpsatSolve performs randomized-restart local search: several greedy runs
// with randomly shuffled tie-breaking, keeping the lowest-penalty result.
// Stands in for a constraint-programming SAT backend with the same
// dispatch contract.
func cpsatSolve(ctx context.Context, schedCtx *model.SchedulingContext, catalog *constraints.Catalog, rng model.Rng, deadline time.Time) ([]model.Assignment, bool) {
	const restarts = 8
	var best []model.Assignment
	bestPenalty := -1.0
	timedOut := false

	for i := 0; i < restarts; i++ {
		if time.Now().After(deadline) {
			timedOut = true
			break
		}
		select {
		case <-ctx.Done():
			return best, true
		default:
		}
		candidate := greedySolve(schedCtx, rng) // rng advances each call, so ties among equally loaded people break differently per restart
		report := catalog.Evaluate(candidate, schedCtx)
		penalty := report.SoftPenalty + float64(report.HardViolationCount)*1e6
		if bestPenalty < 0 || penalty < bestPenalty {
			best, bestPenalty = candidate, penalty
		}
	}
	improved, moreTimeout := localSearch(ctx, schedCtx, best, rng, deadline, 100)
	return improved, timedOut || moreTimeout
}

// hybridSolve spends a fraction of the budget on cpsatSolve, then falls
// back to ilpSolve's local search over whatever cpsat produced.
func hybridSolve(ctx context.Context, schedCtx *model.SchedulingContext, catalog *constraints.Catalog, rng model.Rng, deadline time.Time) ([]model.Assignment, bool) {
	cpsatDeadline := time.Now().Add(time.Until(deadline) / 2)
	assignments, timedOut := cpsatSolve(ctx, schedCtx, catalog, rng, cpsatDeadline)
	refined, moreTimeout := localSearch(ctx, schedCtx, assignments, rng, deadline, 150)
	return refined, timedOut || moreTimeout
}

// localSearch attempts up to maxIterations single-assignment swaps,
// keeping only swaps that reduce total assigned hours imbalance between
// the two people involved. A swap is rejected unless both people remain
// qualified and absence-free for their new slots and neither already
// holds an assignment in the target block, so the pass never turns a
// feasible input infeasible.
func localSearch(ctx context.Context, schedCtx *model.SchedulingContext, assignments []model.Assignment, rng model.Rng, deadline time.Time, maxIterations int) ([]model.Assignment, bool) {
	if len(assignments) < 2 {
		return assignments, false
	}
	working := append([]model.Assignment(nil), assignments...)

	personByID := schedCtx.PersonByID()
	templateByID := schedCtx.TemplateByID()
	blockByID := schedCtx.BlockByID()
	absences := schedCtx.AbsencesByPerson()

	hours := make(map[string]float64)
	booked := make(map[string]map[string]bool)
	for _, a := range working {
		hours[a.PersonID] += a.Hours
		if booked[a.BlockID] == nil {
			booked[a.BlockID] = make(map[string]bool)
		}
		booked[a.BlockID][a.PersonID] = true
	}

	for i := 0; i < maxIterations; i++ {
		if time.Now().After(deadline) {
			return working, true
		}
		select {
		case <-ctx.Done():
			return working, true
		default:
		}
		i1 := int(rng.NextU64() % uint64(len(working)))
		i2 := int(rng.NextU64() % uint64(len(working)))
		if i1 == i2 {
			continue
		}
		a, b := working[i1], working[i2]
		if a.BlockID == b.BlockID || a.PersonID == b.PersonID {
			continue
		}
		// Swapping people between these two assignments; accept only if it
		// reduces the hour gap between the two people.
		before := abs(hours[a.PersonID] - hours[b.PersonID])
		after := abs((hours[a.PersonID] - a.Hours + b.Hours) - (hours[b.PersonID] - b.Hours + a.Hours))
		if after >= before {
			continue
		}
		if !swapKeepsFeasible(a, b, personByID, templateByID, blockByID, booked, absences) {
			continue
		}
		hours[a.PersonID] += b.Hours - a.Hours
		hours[b.PersonID] += a.Hours - b.Hours
		delete(booked[a.BlockID], a.PersonID)
		delete(booked[b.BlockID], b.PersonID)
		booked[a.BlockID][b.PersonID] = true
		booked[b.BlockID][a.PersonID] = true
		working[i1].PersonID, working[i2].PersonID = working[i2].PersonID, working[i1].PersonID
	}
	return working, false
}

// swapKeepsFeasible checks that exchanging the people on assignments a and
// b leaves each person qualified, absence-free, and unique in the block
// they move into.
func swapKeepsFeasible(
	a, b model.Assignment,
	personByID map[string]model.Person,
	templateByID map[string]model.RotationTemplate,
	blockByID map[string]model.Block,
	booked map[string]map[string]bool,
	absences map[string][]model.Absence,
) bool {
	if booked[a.BlockID][b.PersonID] || booked[b.BlockID][a.PersonID] {
		return false
	}
	pa, okA := personByID[a.PersonID]
	pb, okB := personByID[b.PersonID]
	blockA, okBlockA := blockByID[a.BlockID]
	blockB, okBlockB := blockByID[b.BlockID]
	templateA, okTemplateA := templateByID[a.RotationTemplateID]
	templateB, okTemplateB := templateByID[b.RotationTemplateID]
	if !okA || !okB || !okBlockA || !okBlockB || !okTemplateA || !okTemplateB {
		return false
	}
	return personEligible(pb, blockA, templateA, absences) &&
		personEligible(pa, blockB, templateB, absences)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
