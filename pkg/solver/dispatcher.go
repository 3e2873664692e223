package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/config"
	"github.com/meridian-health/resicore/pkg/constraints"
	"github.com/meridian-health/resicore/pkg/model"
)

// Status is the outcome classification of a Solve call.
type Status string

const (
	StatusOptimal     Status = "OPTIMAL"
	StatusFeasible    Status = "FEASIBLE"
	StatusInfeasible  Status = "INFEASIBLE"
	StatusTimeout     Status = "TIMEOUT"
)

// SolverResult is the output of Dispatcher.Solve.
type SolverResult struct {
	Assignments    []model.Assignment
	BackendUsed    config.SolverBackend
	SolveTimeMS    int64
	ObjectiveValue float64
	SoftBreakdown  map[model.Tier]float64
	Status         Status
	Violations     []model.Violation
}

// Options configures one Solve call.
type Options struct {
	BackendHint       config.SolverBackend
	TimeBudgetMS      int
	AntiChurnAlpha    float64
	MaxChurnPerPerson int
	CurrentState      *model.ScheduleState
	Rng               model.Rng
}

// Dispatcher implements SolverDispatcher: it selects a backend by problem
// complexity (or honors an explicit hint) and runs it against a bounded
// time budget.
type Dispatcher struct {
	catalog *constraints.Catalog
	churn   AntiChurnObjective
}

// NewDispatcher returns a dispatcher that validates candidate assignment
// sets against catalog.
func NewDispatcher(catalog *constraints.Catalog) *Dispatcher {
	return &Dispatcher{catalog: catalog}
}

// Complexity scores a scheduling problem for backend selection:
// residents x blocks x templates, discounted by absences since absent
// people shrink the real search space.
func Complexity(ctx *model.SchedulingContext) float64 {
	n := float64(len(ctx.Residents)) * float64(len(ctx.Blocks)) * float64(len(ctx.Templates))
	return n / (1000 + float64(len(ctx.Absences)))
}

// SelectBackend resolves hint to a concrete backend, applying the
// complexity thresholds when hint is config.BackendAuto.
func SelectBackend(hint config.SolverBackend, ctx *model.SchedulingContext) config.SolverBackend {
	if hint != config.BackendAuto && hint != "" {
		return hint
	}
	c := Complexity(ctx)
	switch {
	case c < 20:
		return config.BackendGreedy
	case c < 50:
		return config.BackendILP
	case c < 75:
		return config.BackendCPSAT
	default:
		return config.BackendHybrid
	}
}

// Solve runs the selected backend and validates its AssignmentSet against
// every tier. ObjectiveValue is the tier-3 penalty plus AntiChurnAlpha times
// the anti-churn distance to CurrentState; that distance is computed after
// the search, and no backend takes it into account while choosing
// assignments.
func (d *Dispatcher) Solve(ctx context.Context, schedCtx *model.SchedulingContext, opts Options) SolverResult {
	start := time.Now()
	if opts.TimeBudgetMS <= 0 {
		opts.TimeBudgetMS = 60000
	}
	deadline := start.Add(time.Duration(opts.TimeBudgetMS) * time.Millisecond)

	rng := opts.Rng
	if rng == nil {
		rng = NewSplitMix64(DeriveSeed(schedCtx))
	}

	backend := SelectBackend(opts.BackendHint, schedCtx)
	var assignments []model.Assignment
	var timedOut bool

	switch backend {
	case config.BackendGreedy:
		assignments = greedySolve(schedCtx, rng)
	case config.BackendILP:
		assignments, timedOut = ilpSolve(ctx, schedCtx, rng, deadline)
	case config.BackendCPSAT:
		assignments, timedOut = cpsatSolve(ctx, schedCtx, d.catalog, rng, deadline)
	case config.BackendHybrid:
		assignments, timedOut = hybridSolve(ctx, schedCtx, d.catalog, rng, deadline)
	default:
		assignments = greedySolve(schedCtx, rng)
	}

	report := d.catalog.Evaluate(assignments, schedCtx, model.TierRegulatory, model.TierInstitutional, model.TierSoft)

	var current []model.Assignment
	if opts.CurrentState != nil {
		current = opts.CurrentState.Assignments
	}
	churnDistance := d.churn.Distance(current, assignments)
	alpha := opts.AntiChurnAlpha

	objective := report.SoftPenalty + alpha*float64(churnDistance)

	churnViolations := d.churnCapViolations(current, assignments, opts)
	report.Violations = append(report.Violations, churnViolations...)
	if len(churnViolations) > 0 {
		summary := report.ByTier[model.TierInstitutional]
		summary.ViolationCount += len(churnViolations)
		report.ByTier[model.TierInstitutional] = summary
	}

	status := StatusOptimal
	switch {
	case report.HardViolationCount > 0 && timedOut:
		status = StatusTimeout
	case report.HardViolationCount > 0:
		status = StatusInfeasible
	case timedOut:
		status = StatusTimeout
	case report.ByTier[model.TierSoft].ViolationCount > 0 || report.ByTier[model.TierInstitutional].ViolationCount > 0:
		status = StatusFeasible
	}

	byTier := make(map[model.Tier]float64, len(report.ByTier))
	for tier, summary := range report.ByTier {
		byTier[tier] = summary.SoftPenalty
	}

	return SolverResult{
		Assignments:    sortedAssignments(assignments),
		BackendUsed:    backend,
		SolveTimeMS:    time.Since(start).Milliseconds(),
		ObjectiveValue: objective,
		SoftBreakdown:  byTier,
		Status:         status,
		Violations:     report.Violations,
	}
}

// churnCapViolations enforces the per-person change cap: the objective's
// alpha term trades churn off globally, but no amount of objective credit
// may concentrate more than MaxChurnPerPerson changes on one person.
// Exceeding the cap is an institutional (tier-2) violation, not a hard
// failure.
func (d *Dispatcher) churnCapViolations(current, candidate []model.Assignment, opts Options) []model.Violation {
	if opts.CurrentState == nil || opts.MaxChurnPerPerson <= 0 {
		return nil
	}
	var out []model.Violation
	changes := d.churn.PerPersonChanges(current, candidate)
	people := make([]string, 0, len(changes))
	for person := range changes {
		people = append(people, person)
	}
	sort.Strings(people)
	for _, person := range people {
		count := changes[person]
		if count <= opts.MaxChurnPerPerson {
			continue
		}
		out = append(out, model.Violation{
			ConstraintName: "ChurnCap",
			Tier:           model.TierInstitutional,
			Severity:       model.SeverityHigh,
			People:         sets.New(person),
			Message:        fmt.Sprintf("%d assignment changes for %s exceed the per-person cap of %d", count, person, opts.MaxChurnPerPerson),
			Details: map[string]any{
				"change_count": count,
				"cap":          opts.MaxChurnPerPerson,
			},
		})
	}
	return out
}

func sortedAssignments(assignments []model.Assignment) []model.Assignment {
	out := append([]model.Assignment(nil), assignments...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].PersonID != out[j].PersonID {
			return out[i].PersonID < out[j].PersonID
		}
		return out[i].BlockID < out[j].BlockID
	})
	return out
}
