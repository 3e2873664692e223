package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/constraints"
	"github.com/meridian-health/resicore/pkg/model"
)

func TestCpsatSolveReturnsFeasibleAssignments(t *testing.T) {
	catalog := constraints.NewCatalog()
	require.NoError(t, constraints.RegisterBuiltins(catalog))

	schedCtx := smallContext()
	rng := NewSplitMix64(42)
	assignments, timedOut := cpsatSolve(context.Background(), schedCtx, catalog, rng, time.Now().Add(time.Second))
	assert.False(t, timedOut)
	assert.NotEmpty(t, assignments)
}

func TestHybridSolveFallsBackWithinBudget(t *testing.T) {
	catalog := constraints.NewCatalog()
	require.NoError(t, constraints.RegisterBuiltins(catalog))

	schedCtx := smallContext()
	rng := NewSplitMix64(7)
	assignments, timedOut := hybridSolve(context.Background(), schedCtx, catalog, rng, time.Now().Add(time.Second))
	assert.False(t, timedOut)
	assert.NotEmpty(t, assignments)
}

func TestLocalSearchRespectsDeadline(t *testing.T) {
	schedCtx := smallContext()
	assignments := greedySolve(schedCtx, NewSplitMix64(1))
	rng := NewSplitMix64(2)

	_, timedOut := localSearch(context.Background(), schedCtx, assignments, rng, time.Now().Add(-time.Second), 100)
	assert.True(t, timedOut)
}

func TestLocalSearchPreservesFeasibility(t *testing.T) {
	// r1 is the only person qualified for t1's certification, so any swap
	// moving r2 into an r1 slot must be rejected; likewise no person may
	// end up assigned twice in one block.
	schedCtx := &model.SchedulingContext{
		Residents: []model.Person{
			{ID: "r1", Role: model.RoleResident, PGYLevel: 2, Certifications: sets.New("pals")},
			{ID: "r2", Role: model.RoleResident, PGYLevel: 2},
		},
		Blocks: []model.Block{
			{ID: "b1", Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
			{ID: "b2", Date: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)},
			{ID: "b3", Date: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)},
		},
		Templates: []model.RotationTemplate{
			{ID: "t1", RequiredCertifications: sets.New("pals"), MinCoverage: 1, TargetCoverage: 1, HoursPerBlock: 12},
			{ID: "t2", MinCoverage: 1, TargetCoverage: 1, HoursPerBlock: 6},
		},
	}
	assignments := greedySolve(schedCtx, NewSplitMix64(3))
	require.NotEmpty(t, assignments)

	improved, _ := localSearch(context.Background(), schedCtx, assignments, NewSplitMix64(4), time.Now().Add(time.Second), 500)

	_, err := model.IndexAssignments(improved)
	require.NoError(t, err, "local search must not duplicate a (person, block) pair")
	for _, a := range improved {
		if a.RotationTemplateID == "t1" {
			assert.Equal(t, "r1", a.PersonID, "only r1 holds t1's required certification")
		}
	}
}
