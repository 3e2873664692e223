package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/resicore/pkg/analytics/spc"
	"github.com/meridian-health/resicore/pkg/config"
	"github.com/meridian-health/resicore/pkg/model"
)

type staticState struct {
	state model.ScheduleState
}

func (s staticState) GetObservableState() model.ScheduleState { return s.state }

var windowStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

// steadyFixture builds a 28-day schedule: one FULL block per day, one
// template with a minimum coverage of 1, and one resident assigned every
// day with mildly varying hours so the control chart has nonzero sigma.
func steadyFixture() (*model.SchedulingContext, model.ScheduleState) {
	schedCtx := &model.SchedulingContext{
		Residents: []model.Person{
			{ID: "r1", Role: model.RoleResident, PGYLevel: 2, MaxHoursPerWeek: 80},
			{ID: "r2", Role: model.RoleResident, PGYLevel: 3, MaxHoursPerWeek: 80},
		},
		Templates: []model.RotationTemplate{
			{ID: "t1", Name: "inpatient days", MinCoverage: 1, HoursPerBlock: 12},
		},
	}

	var assignments []model.Assignment
	for day := 0; day < 28; day++ {
		blockID := "b" + string(rune('a'+day/10)) + string(rune('0'+day%10))
		schedCtx.Blocks = append(schedCtx.Blocks, model.Block{
			ID:          blockID,
			Date:        windowStart.AddDate(0, 0, day),
			Period:      model.PeriodFull,
			LengthHours: 12,
		})
		assignments = append(assignments, model.Assignment{
			PersonID:           "r1",
			BlockID:            blockID,
			RotationTemplateID: "t1",
			Hours:              11 + float64(day%3),
		})
	}

	state := model.ScheduleState{
		StateID:        "state-1",
		Status:         model.StatusAuthoritative,
		Assignments:    assignments,
		ACGMECompliant: true,
	}
	return schedCtx, state
}

func TestSummaryOnSteadyScheduleIsGreen(t *testing.T) {
	schedCtx, state := steadyFixture()
	svc := NewService(staticState{state}, config.Default())

	summary := svc.Summary(context.Background(), schedCtx, Window{Start: windowStart, Days: 28})

	assert.Equal(t, 1.0, summary.CoverageRate)
	assert.Greater(t, summary.Utilization, 0.4)
	assert.Less(t, summary.Utilization, 0.7)
	assert.Equal(t, spc.StatusInControl, summary.SPCStatus)
	assert.Greater(t, summary.UnifiedIndex, 0.85)
	assert.Equal(t, DefenseGreen, summary.DefenseLevel)
}

func TestSummaryEmptyScheduleForcesRed(t *testing.T) {
	schedCtx, state := steadyFixture()
	state.Assignments = nil
	svc := NewService(staticState{state}, config.Default())

	summary := svc.Summary(context.Background(), schedCtx, Window{Start: windowStart, Days: 28})

	assert.Equal(t, 0.0, summary.CoverageRate)
	assert.Less(t, summary.UnifiedIndex, 0.5)
	assert.Equal(t, DefenseRed, summary.DefenseLevel)
}

func TestSummaryNonCompliantStateIsRed(t *testing.T) {
	schedCtx, state := steadyFixture()
	state.ACGMECompliant = false
	svc := NewService(staticState{state}, config.Default())

	summary := svc.Summary(context.Background(), schedCtx, Window{Start: windowStart, Days: 28})
	assert.Equal(t, DefenseRed, summary.DefenseLevel)
}

func TestSummaryFlagsOutOfControlHoursSpike(t *testing.T) {
	schedCtx, state := steadyFixture()
	// the final week jumps far outside the fitted limits.
	for i := len(state.Assignments) - 7; i < len(state.Assignments); i++ {
		state.Assignments[i].Hours = 40
	}
	svc := NewService(staticState{state}, config.Default())

	summary := svc.Summary(context.Background(), schedCtx, Window{Start: windowStart, Days: 28})

	assert.Equal(t, spc.StatusOutOfControl, summary.SPCStatus)
	assert.GreaterOrEqual(t, summary.DefenseLevel, DefenseOrange)
}

func TestSummaryIncludesRtFromIncidence(t *testing.T) {
	schedCtx, state := steadyFixture()
	cfg := config.Default()
	cfg.Analytics.Rt.WindowSize = 5
	svc := NewService(staticState{state}, cfg)

	summary := svc.Summary(context.Background(), schedCtx, Window{
		Start:            windowStart,
		Days:             28,
		BurnoutIncidence: []float64{5, 5, 5, 4, 3, 2, 1, 1, 0, 0},
	})

	require.NotNil(t, summary.RtEstimate)
	assert.Less(t, summary.RtEstimate.RtMean, 1.0)
	assert.Equal(t, model.RtDeclining, summary.RtEstimate.Interpretation)
}

func TestDefenseLevelStrings(t *testing.T) {
	assert.Equal(t, "GREEN", DefenseGreen.String())
	assert.Equal(t, "YELLOW", DefenseYellow.String())
	assert.Equal(t, "ORANGE", DefenseOrange.String())
	assert.Equal(t, "RED", DefenseRed.String())
}
