package spinglass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/constraints"
	"github.com/meridian-health/resicore/pkg/model"
)

func assignmentsFixture() []model.Assignment {
	return []model.Assignment{
		{PersonID: "r1", BlockID: "b1", RotationTemplateID: "t1", Hours: 12},
		{PersonID: "r1", BlockID: "b2", RotationTemplateID: "t2", Hours: 12},
		{PersonID: "r2", BlockID: "b1", RotationTemplateID: "t1", Hours: 12},
		{PersonID: "r2", BlockID: "b2", RotationTemplateID: "t1", Hours: 12},
	}
}

func contextFixture() *model.SchedulingContext {
	return &model.SchedulingContext{
		Residents: []model.Person{
			{ID: "r1", Role: model.RoleResident, PGYLevel: 2},
			{ID: "r2", Role: model.RoleResident, PGYLevel: 3},
		},
		Templates: []model.RotationTemplate{
			{ID: "t1", Name: "inpatient days"},
			{ID: "t2", Name: "clinic"},
		},
	}
}

// touching registers a constraint whose violations always involve the
// given people, so two constraints' loci overlap exactly as configured.
func touching(t *testing.T, catalog *constraints.Catalog, name string, people ...string) {
	t.Helper()
	err := catalog.Register(constraints.Constraint{
		Name: name,
		Tier: model.TierSoft,
		Violates: func([]model.Assignment, *model.SchedulingContext) []model.Violation {
			return []model.Violation{{
				ConstraintName: name,
				Tier:           model.TierSoft,
				People:         sets.New(people...),
				Message:        name + " unsatisfied",
			}}
		},
	})
	require.NoError(t, err)
}

func TestParisiOverlapIdentity(t *testing.T) {
	a := assignmentsFixture()
	assert.Equal(t, 1.0, ParisiOverlap(a, a))
	assert.Equal(t, 1.0, ParisiOverlap(nil, nil))
}

func TestParisiOverlapRangeAndDisjointSets(t *testing.T) {
	a := assignmentsFixture()
	b := []model.Assignment{
		{PersonID: "r3", BlockID: "b9", RotationTemplateID: "t1"},
	}
	overlap := ParisiOverlap(a, b)
	assert.GreaterOrEqual(t, overlap, 0.0)
	assert.LessOrEqual(t, overlap, 1.0)
	assert.Equal(t, 0.0, overlap)

	// same key, different template: counts toward the union but not the
	// matches.
	c := append([]model.Assignment(nil), a...)
	c[0].RotationTemplateID = "t2"
	assert.Equal(t, 0.75, ParisiOverlap(a, c))
}

func TestFrustrationIndexMonotonicUnderConstraintAddition(t *testing.T) {
	catalog := constraints.NewCatalog()
	touching(t, catalog, "alpha", "r1", "r2")
	touching(t, catalog, "beta", "r1")
	touching(t, catalog, "gamma", "r2")
	touching(t, catalog, "delta", "r1", "r2")

	analyzer := NewAnalyzer(catalog)
	assignments := assignmentsFixture()
	ctx := contextFixture()

	names := []string{"alpha", "beta"}
	prev, err := analyzer.FrustrationIndex(assignments, ctx, names)
	require.NoError(t, err)
	for _, added := range []string{"gamma", "delta"} {
		names = append(names, added)
		next, err := analyzer.FrustrationIndex(assignments, ctx, names)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, next, prev, "adding %s must not decrease frustration", added)
		prev = next
	}
	assert.GreaterOrEqual(t, prev, 0.0)
	assert.LessOrEqual(t, prev, 1.0)
}

func TestFrustrationIndexZeroForFewerThanTwoConstraints(t *testing.T) {
	catalog := constraints.NewCatalog()
	touching(t, catalog, "alpha", "r1")
	analyzer := NewAnalyzer(catalog)

	f, err := analyzer.FrustrationIndex(assignmentsFixture(), contextFixture(), []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, f)
}

func TestGenerateReplicasIsDeterministic(t *testing.T) {
	catalog := constraints.NewCatalog()
	analyzer := NewAnalyzer(catalog)
	ctx := contextFixture()
	base := assignmentsFixture()

	first := analyzer.GenerateReplicas("sched-1", ctx, base, 4, 1.0, 42)
	second := analyzer.GenerateReplicas("sched-1", ctx, base, 4, 1.0, 42)
	assert.Equal(t, first, second)

	different := analyzer.GenerateReplicas("sched-1", ctx, base, 4, 1.0, 43)
	// A different seed walks a different path; assert the ensembles are
	// not trivially identical across every replica.
	identical := true
	for i := range first {
		if ParisiOverlap(first[i].Assignments, different[i].Assignments) < 1 {
			identical = false
			break
		}
	}
	assert.False(t, identical)
}

func TestGenerateReplicasRecordsIndexAndScheduleID(t *testing.T) {
	catalog := constraints.NewCatalog()
	analyzer := NewAnalyzer(catalog)

	replicas := analyzer.GenerateReplicas("sched-1", contextFixture(), assignmentsFixture(), 3, 1.0, 7)
	require.Len(t, replicas, 3)
	for i, r := range replicas {
		assert.Equal(t, i, r.ReplicaIndex)
		assert.Equal(t, "sched-1", r.ScheduleID)
		assert.Len(t, r.Assignments, 4)
	}
}

func TestReplicaSymmetryAnalysisOnIdenticalReplicas(t *testing.T) {
	a := assignmentsFixture()
	replicas := []model.ReplicaSchedule{
		{Assignments: a, ReplicaIndex: 0},
		{Assignments: a, ReplicaIndex: 1},
		{Assignments: a, ReplicaIndex: 2},
	}

	analysis := ReplicaSymmetryAnalysis(replicas)
	assert.Equal(t, 1.0, analysis.MeanOverlap)
	assert.Equal(t, 0.0, analysis.RSBOrderParameter)
	assert.Equal(t, 0.0, analysis.DiversityScore)
	require.Len(t, analysis.OverlapMatrix, 3)
	assert.Equal(t, 1.0, analysis.OverlapMatrix[0][2])
	assert.Len(t, analysis.OverlapDistribution, 3)
}

func TestFrustrationClustersGroupsCoViolatedConstraints(t *testing.T) {
	// alpha and beta co-violate in every replica; gamma never violates
	// alongside them, so it must not join their cluster.
	replicas := []model.ReplicaSchedule{
		{Assignments: assignmentsFixture(), ConstraintViolations: map[string]float64{"alpha": 1, "beta": 2}},
		{Assignments: assignmentsFixture(), ConstraintViolations: map[string]float64{"alpha": 1, "beta": 1}},
		{Assignments: assignmentsFixture(), ConstraintViolations: map[string]float64{"gamma": 1}},
	}

	clusters := FrustrationClusters(replicas, 0.5)
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"alpha", "beta"}, clusters[0].Constraints)
	assert.Greater(t, clusters[0].FrustrationIndex, 0.5)
	assert.Equal(t, "pairwise_conflict", clusters[0].ConflictType)
	assert.NotEmpty(t, clusters[0].ResolutionSuggestions)
	assert.True(t, clusters[0].AffectedPersons.Has("r1"))
}

func TestEnergyLandscapeFindsGlobalMinimum(t *testing.T) {
	a := assignmentsFixture()
	b := []model.Assignment{
		{PersonID: "r9", BlockID: "b9", RotationTemplateID: "t2"},
	}
	replicas := []model.ReplicaSchedule{
		{Assignments: a, Energy: 5},
		{Assignments: a, Energy: 3},
		{Assignments: b, Energy: 8},
	}

	report := NewAnalyzer(constraints.NewCatalog()).EnergyLandscape(replicas)
	assert.Equal(t, 3.0, report.GlobalMinimumEnergy)
	// two basins: the pair sharing assignments, and the singleton.
	assert.Len(t, report.LocalMinima, 2)
	assert.ElementsMatch(t, []int{2, 1}, report.BasinSizes)
}

func TestGlassTransitionThresholdBoundedByOne(t *testing.T) {
	catalog := constraints.NewCatalog()
	touching(t, catalog, "a", "r1")
	touching(t, catalog, "b", "r1", "r2")
	touching(t, catalog, "c", "r2")
	touching(t, catalog, "d", "r1", "r2")
	analyzer := NewAnalyzer(catalog)

	threshold, err := analyzer.GlassTransitionThreshold(assignmentsFixture(), contextFixture(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, threshold, 0.0)
	assert.LessOrEqual(t, threshold, 1.0)
}
