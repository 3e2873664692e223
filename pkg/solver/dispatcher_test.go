package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/config"
	"github.com/meridian-health/resicore/pkg/constraints"
	"github.com/meridian-health/resicore/pkg/model"
)

func smallContext() *model.SchedulingContext {
	return &model.SchedulingContext{
		Residents: []model.Person{
			{ID: "r1", Role: model.RoleResident, PGYLevel: 2},
			{ID: "r2", Role: model.RoleResident, PGYLevel: 2},
		},
		Blocks: []model.Block{
			{ID: "b1", Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
			{ID: "b2", Date: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)},
		},
		Templates: []model.RotationTemplate{
			{ID: "t1", AllowedPGY: sets.New(2), MinCoverage: 1, TargetCoverage: 1, HoursPerBlock: 8},
		},
	}
}

func TestSelectBackendHonorsExplicitHint(t *testing.T) {
	assert.Equal(t, config.BackendGreedy, SelectBackend(config.BackendGreedy, smallContext()))
}

func TestSelectBackendAutoPicksGreedyForSmallProblems(t *testing.T) {
	assert.Equal(t, config.BackendGreedy, SelectBackend(config.BackendAuto, smallContext()))
}

func TestSolveGreedyProducesDeterministicAssignments(t *testing.T) {
	catalog := NewCatalogForTest(t)
	dispatcher := NewDispatcher(catalog)
	schedCtx := smallContext()

	opts := Options{BackendHint: config.BackendGreedy, TimeBudgetMS: 1000, AntiChurnAlpha: 0.3}
	r1 := dispatcher.Solve(context.Background(), schedCtx, opts)
	r2 := dispatcher.Solve(context.Background(), schedCtx, opts)

	require.Equal(t, len(r1.Assignments), len(r2.Assignments))
	assert.Equal(t, r1.Assignments, r2.Assignments)
	assert.Equal(t, config.BackendGreedy, r1.BackendUsed)
}

func TestSolveReportsNonOptimalWhenNoQualifiedCandidates(t *testing.T) {
	catalog := NewCatalogForTest(t)
	dispatcher := NewDispatcher(catalog)
	schedCtx := &model.SchedulingContext{
		Residents: []model.Person{{ID: "r1", Role: model.RoleResident, PGYLevel: 1}},
		Blocks:    []model.Block{{ID: "b1", Date: time.Now()}},
		Templates: []model.RotationTemplate{{ID: "t1", AllowedPGY: sets.New(3), MinCoverage: 1, TargetCoverage: 1}},
	}
	result := dispatcher.Solve(context.Background(), schedCtx, Options{BackendHint: config.BackendGreedy, TimeBudgetMS: 1000})
	assert.NotEqual(t, StatusOptimal, result.Status)
}

func TestSolveFlagsChurnCapViolations(t *testing.T) {
	dispatcher := NewDispatcher(constraints.NewCatalog())
	schedCtx := smallContext()

	// the current state assigns r1 to both blocks under a template the
	// solver will never pick, so every solved pair counts as a change.
	current := &model.ScheduleState{Assignments: []model.Assignment{
		{PersonID: "r1", BlockID: "b1", RotationTemplateID: "stale"},
		{PersonID: "r1", BlockID: "b2", RotationTemplateID: "stale"},
	}}

	result := dispatcher.Solve(context.Background(), schedCtx, Options{
		BackendHint:       config.BackendGreedy,
		TimeBudgetMS:      1000,
		CurrentState:      current,
		MaxChurnPerPerson: 1,
	})

	var capViolations []model.Violation
	for _, v := range result.Violations {
		if v.ConstraintName == "ChurnCap" {
			capViolations = append(capViolations, v)
		}
	}
	require.NotEmpty(t, capViolations)
	assert.Equal(t, model.TierInstitutional, capViolations[0].Tier)
	assert.True(t, capViolations[0].People.Has("r1"))
	assert.NotEqual(t, StatusOptimal, result.Status)
}

// NewCatalogForTest returns a catalog with every built-in constraint
// registered, failing the test immediately if registration errors.
func NewCatalogForTest(t *testing.T) *constraints.Catalog {
	t.Helper()
	catalog := constraints.NewCatalog()
	require.NoError(t, constraints.RegisterBuiltins(catalog))
	return catalog
}
