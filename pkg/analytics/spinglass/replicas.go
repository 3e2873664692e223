package spinglass

import (
	"math"

	"github.com/meridian-health/resicore/pkg/model"
	"github.com/meridian-health/resicore/pkg/solver"
)

// sweepsPerReplica bounds the Metropolis walk each replica takes away
// from its starting point. Kept small and fixed so identical inputs
// produce identical, quickly-computed replicas.
const sweepsPerReplica = 64

// GenerateReplicas draws n perturbed copies of base (or, if base is nil,
// an empty assignment set) via Metropolis sampling at temperature,
// seeded deterministically from seed and each replica's index so that
// identical (context, seed, temperature, replica index) always yields a
// byte-identical replica.
func (a *Analyzer) GenerateReplicas(scheduleID string, ctx *model.SchedulingContext, base []model.Assignment, n int, temperature float64, seed uint64) []model.ReplicaSchedule {
	if temperature <= 0 {
		temperature = 1.0
	}
	replicas := make([]model.ReplicaSchedule, 0, n)
	for i := 0; i < n; i++ {
		rng := solver.NewSplitMix64(seed ^ (uint64(i+1) * 0x9E3779B97F4A7C15))
		replicas = append(replicas, a.metropolisReplica(scheduleID, ctx, base, i, temperature, rng))
	}
	return replicas
}

func (a *Analyzer) metropolisReplica(scheduleID string, ctx *model.SchedulingContext, base []model.Assignment, index int, temperature float64, rng model.Rng) model.ReplicaSchedule {
	current := cloneAssignments(base)
	currentEnergy := a.softEnergy(current, ctx)

	for step := 0; step < sweepsPerReplica; step++ {
		if len(current) == 0 || len(ctx.Templates) == 0 {
			break
		}
		idx := int(rng.NextU64() % uint64(len(current)))
		templateIdx := int(rng.NextU64() % uint64(len(ctx.Templates)))
		proposedTemplate := ctx.Templates[templateIdx].ID

		candidate := cloneAssignments(current)
		candidate[idx].RotationTemplateID = proposedTemplate

		if a.Catalog.Evaluate(candidate, ctx, model.TierRegulatory).HardViolationCount > 0 {
			continue
		}

		candidateEnergy := a.softEnergy(candidate, ctx)
		if accept(currentEnergy, candidateEnergy, temperature, rng.NextF64()) {
			current = candidate
			currentEnergy = candidateEnergy
		}
	}

	report := a.Catalog.Evaluate(current, ctx, model.TierSoft)
	violations := make(map[string]float64, len(report.ByTier))
	for _, v := range report.Violations {
		violations[v.ConstraintName]++
	}

	return model.ReplicaSchedule{
		ScheduleID:           scheduleID,
		Assignments:          current,
		Energy:               currentEnergy,
		Magnetization:        magnetization(current, ctx),
		ConstraintViolations: violations,
		ReplicaIndex:         index,
	}
}

func (a *Analyzer) softEnergy(assignments []model.Assignment, ctx *model.SchedulingContext) float64 {
	return a.Catalog.Evaluate(assignments, ctx, model.TierSoft).SoftPenalty
}

// accept implements the Metropolis criterion: always accept an
// energy-decreasing move, otherwise accept with probability
// exp(-(candidate-current)/temperature).
func accept(current, candidate, temperature, draw float64) bool {
	if candidate <= current {
		return true
	}
	delta := candidate - current
	return draw < math.Exp(-delta/temperature)
}

func cloneAssignments(assignments []model.Assignment) []model.Assignment {
	out := make([]model.Assignment, len(assignments))
	copy(out, assignments)
	return out
}

// magnetization sums soft_preference_alignment: +1 for an assignment
// matching its person's declared preferred template for that block, -1
// for an assignment that contradicts a declared preference, 0 where no
// preference was declared.
func magnetization(assignments []model.Assignment, ctx *model.SchedulingContext) float64 {
	prefs := make(map[model.AssignmentKey]model.Preference, len(ctx.Preferences))
	for _, p := range ctx.Preferences {
		prefs[model.AssignmentKey{PersonID: p.PersonID, BlockID: p.BlockID}] = p
	}

	total := 0.0
	for _, assignment := range assignments {
		pref, ok := prefs[assignment.Key()]
		if !ok || pref.PreferredTemplateID == "" {
			continue
		}
		if assignment.RotationTemplateID == pref.PreferredTemplateID {
			total++
		} else {
			total--
		}
	}
	return total
}
