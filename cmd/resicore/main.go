// Command resicore wires the scheduling core together end-to-end against
// an in-memory fixture: register the built-in constraint catalog, solve a
// small residency program, stage the result as a draft, advance a manual
// checkpoint, and print the resilience summary. It is a demonstration
// harness, not a product surface.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/internal/obslog"
	"github.com/meridian-health/resicore/pkg/config"
	"github.com/meridian-health/resicore/pkg/constraints"
	"github.com/meridian-health/resicore/pkg/eventbus"
	"github.com/meridian-health/resicore/pkg/lock"
	"github.com/meridian-health/resicore/pkg/model"
	"github.com/meridian-health/resicore/pkg/resilience"
	"github.com/meridian-health/resicore/pkg/snapshot"
	"github.com/meridian-health/resicore/pkg/solver"
	"github.com/meridian-health/resicore/pkg/stroboscopic"
)

func main() {
	logger := obslog.NewDevelopment()
	defer func() { _ = logger.Sync() }()
	ctx := obslog.Into(context.Background(), logger)

	if err := run(ctx); err != nil {
		logger.Errorw("resicore demo failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := obslog.FromContext(ctx)
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		return err
	}

	catalog := constraints.NewCatalog()
	if err := constraints.RegisterBuiltins(catalog); err != nil {
		return err
	}

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	schedCtx := demoContext(start, 28)

	dispatcher := solver.NewDispatcher(catalog)
	result := dispatcher.Solve(ctx, schedCtx, solver.Options{
		BackendHint:       cfg.Solver.DefaultBackend,
		TimeBudgetMS:      cfg.Solver.TimeBudgetMS,
		AntiChurnAlpha:    cfg.Solver.AntiChurnAlpha,
		MaxChurnPerPerson: cfg.Solver.MaxChurnPerPerson,
	})
	logger.Infow("solver finished",
		"backend", result.BackendUsed,
		"status", result.Status,
		"assignments", len(result.Assignments),
		"objective", result.ObjectiveValue,
		"solve_time_ms", result.SolveTimeMS,
	)
	if result.Status == solver.StatusInfeasible {
		for _, v := range result.Violations {
			logger.Warnw("violation", "constraint", v.ConstraintName, "message", v.Message)
		}
		return fmt.Errorf("demo context is infeasible")
	}

	bus := eventbus.NewEventBus(16)
	sub := bus.Subscribe(model.EventCheckpointAdvanced, func(ctx context.Context, event model.CheckpointEvent) {
		obslog.FromContext(ctx).Infow("checkpoint advanced",
			"state", event.StateID,
			"previous", event.PreviousStateID,
			"boundary", event.Boundary,
			"assignments_changed", event.AssignmentsChanged,
			"acgme_compliant", event.ACGMECompliant,
		)
	})
	defer bus.Unsubscribe(sub)

	manager := stroboscopic.NewManager(
		"demo-program",
		model.ScheduleState{Status: model.StatusAuthoritative, ACGMECompliant: true},
		lock.NewTTLLock(),
		bus,
		snapshot.NewStore(),
		catalog,
		nil,
		time.Duration(cfg.Checkpoint.LockTTLMS)*time.Millisecond,
		cfg.Constraint.StrictMode,
	)

	draftID := manager.ProposeDraft(result.Assignments, map[string]any{"source": "demo"}, "resicore")
	logger.Infow("draft staged", "state", draftID)

	event, err := manager.AdvanceCheckpoint(ctx, model.BoundaryManual, "resicore", schedCtx)
	if err != nil {
		return err
	}

	svc := resilience.NewService(manager, cfg)
	summary := svc.Summary(ctx, schedCtx, resilience.Window{Start: start, Days: 28})
	logger.Infow("schedule health",
		"state", event.StateID,
		"utilization", fmt.Sprintf("%.2f", summary.Utilization),
		"coverage_rate", fmt.Sprintf("%.2f", summary.CoverageRate),
		"spc_status", summary.SPCStatus,
		"periodicity_strength", fmt.Sprintf("%.2f", summary.PeriodicityStrength),
		"unified_index", fmt.Sprintf("%.2f", summary.UnifiedIndex),
		"defense_level", summary.DefenseLevel.String(),
	)
	return nil
}

// demoContext builds a small but realistic program: six residents across
// three PGY levels, two supervising faculty, one FULL block per day, and
// an inpatient plus a clinic template.
func demoContext(start time.Time, days int) *model.SchedulingContext {
	residents := make([]model.Person, 0, 6)
	for i := 0; i < 6; i++ {
		residents = append(residents, model.Person{
			ID:              fmt.Sprintf("resident-%d", i+1),
			Role:            model.RoleResident,
			PGYLevel:        i%3 + 1,
			MaxHoursPerWeek: 80,
		})
	}
	faculty := []model.Person{
		{ID: "faculty-1", Role: model.RoleFaculty, CanSupervise: true, MaxHoursPerWeek: 60},
		{ID: "faculty-2", Role: model.RoleFaculty, CanSupervise: true, MaxHoursPerWeek: 60},
	}

	blocks := make([]model.Block, 0, days)
	for day := 0; day < days; day++ {
		blocks = append(blocks, model.Block{
			ID:          fmt.Sprintf("block-%02d", day),
			Date:        start.AddDate(0, 0, day),
			Period:      model.PeriodFull,
			LengthHours: 12,
		})
	}

	templates := []model.RotationTemplate{
		{
			ID:             "inpatient",
			Name:           "inpatient wards",
			ActivityType:   model.ActivityInpatient,
			AllowedPGY:     sets.New(1, 2, 3),
			MinCoverage:    1,
			TargetCoverage: 2,
			MaxCoverage:    4,
			HoursPerBlock:  12,
		},
		{
			ID:             "clinic",
			Name:           "continuity clinic",
			ActivityType:   model.ActivityClinic,
			AllowedPGY:     sets.New(2, 3),
			MinCoverage:    0,
			TargetCoverage: 1,
			MaxCoverage:    2,
			HoursPerBlock:  8,
		},
	}

	return &model.SchedulingContext{
		Residents: residents,
		Faculty:   faculty,
		Blocks:    blocks,
		Templates: templates,
	}
}
