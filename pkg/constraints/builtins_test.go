package constraints

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/model"
)

func day(offset int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestRegisterBuiltinsNoDuplicates(t *testing.T) {
	catalog := NewCatalog()
	require.NoError(t, RegisterBuiltins(catalog))
}

func TestQualificationRejectsMissingCertification(t *testing.T) {
	ctx := &model.SchedulingContext{
		Residents: []model.Person{{ID: "r1", Role: model.RoleResident, PGYLevel: 2}},
		Templates: []model.RotationTemplate{{
			ID:                     "t1",
			RequiredCertifications: sets.New("ACLS"),
		}},
	}
	assignments := []model.Assignment{{PersonID: "r1", BlockID: "b1", RotationTemplateID: "t1"}}

	violations := qualification().Violates(assignments, ctx)
	require.Len(t, violations, 1)
	assert.True(t, violations[0].People.Has("r1"))
}

func TestQualificationAcceptsMatchingCertification(t *testing.T) {
	ctx := &model.SchedulingContext{
		Residents: []model.Person{{ID: "r1", Role: model.RoleResident, PGYLevel: 2, Certifications: sets.New("ACLS")}},
		Templates: []model.RotationTemplate{{ID: "t1", RequiredCertifications: sets.New("ACLS")}},
	}
	assignments := []model.Assignment{{PersonID: "r1", BlockID: "b1", RotationTemplateID: "t1"}}
	assert.Empty(t, qualification().Violates(assignments, ctx))
}

func TestAbsenceBlockingDetectsOverlap(t *testing.T) {
	ctx := &model.SchedulingContext{
		Blocks: []model.Block{{ID: "b1", Date: day(5)}},
		Absences: []model.Absence{{
			PersonID: "r1", StartDate: day(0), EndDate: day(10), Kind: model.AbsenceDeployment,
		}},
	}
	assignments := []model.Assignment{{PersonID: "r1", BlockID: "b1"}}
	violations := absenceBlocking().Violates(assignments, ctx)
	require.Len(t, violations, 1)
}

func TestAbsenceBlockingIgnoresNonBlockingKind(t *testing.T) {
	ctx := &model.SchedulingContext{
		Blocks:   []model.Block{{ID: "b1", Date: day(5)}},
		Absences: []model.Absence{{PersonID: "r1", StartDate: day(0), EndDate: day(10), Kind: model.AbsenceVacation}},
	}
	assignments := []model.Assignment{{PersonID: "r1", BlockID: "b1"}}
	assert.Empty(t, absenceBlocking().Violates(assignments, ctx))
}

func TestWorkHour80FlagsExcessiveRollingHours(t *testing.T) {
	blocks := make([]model.Block, 0, 10)
	assignments := make([]model.Assignment, 0, 10)
	for i := 0; i < 10; i++ {
		id := "b" + string(rune('a'+i))
		blocks = append(blocks, model.Block{ID: id, Date: day(i * 2)})
		assignments = append(assignments, model.Assignment{PersonID: "r1", BlockID: id, Hours: 40})
	}
	ctx := &model.SchedulingContext{Blocks: blocks}
	violations := workHour80().Violates(assignments, ctx)
	assert.NotEmpty(t, violations)
}

func TestCoverageMinFlagsShortfall(t *testing.T) {
	ctx := &model.SchedulingContext{
		Blocks:    []model.Block{{ID: "b1", Date: day(0)}},
		Templates: []model.RotationTemplate{{ID: "t1", MinCoverage: 2}},
	}
	assignments := []model.Assignment{{PersonID: "r1", BlockID: "b1", RotationTemplateID: "t1"}}
	violations := coverageMin().Violates(assignments, ctx)
	require.Len(t, violations, 1)
	assert.Equal(t, model.TierInstitutional, violations[0].Tier)
}

func TestWorkloadEquityIgnoresBalancedDistribution(t *testing.T) {
	ctx := &model.SchedulingContext{}
	assignments := []model.Assignment{
		{PersonID: "r1", BlockID: "b1", Hours: 40},
		{PersonID: "r2", BlockID: "b2", Hours: 40},
	}
	assert.Empty(t, workloadEquity().Violates(assignments, ctx))
}

func TestWorkloadEquityFlagsSkewedDistribution(t *testing.T) {
	ctx := &model.SchedulingContext{}
	assignments := []model.Assignment{
		{PersonID: "r1", BlockID: "b1", Hours: 10},
		{PersonID: "r2", BlockID: "b2", Hours: 200},
	}
	assert.NotEmpty(t, workloadEquity().Violates(assignments, ctx))
}
