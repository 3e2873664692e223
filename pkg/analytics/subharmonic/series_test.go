package subharmonic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-health/resicore/pkg/model"
)

func TestBuildSeriesAggregations(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	blocks := []model.Block{
		{ID: "b0", Date: start},
		{ID: "b1", Date: start.AddDate(0, 0, 1)},
	}
	assignments := []model.Assignment{
		{PersonID: "r1", BlockID: "b0", RotationTemplateID: "t1", Hours: 12},
		{PersonID: "r2", BlockID: "b0", RotationTemplateID: "t1", Hours: 8},
		{PersonID: "r1", BlockID: "b1", RotationTemplateID: "t1", Hours: 12},
		{PersonID: "r1", BlockID: "unknown", RotationTemplateID: "t1", Hours: 99},
	}

	assert.Equal(t, []float64{2, 1, 0}, BuildSeries(assignments, blocks, start, 3, AggregationCount))
	assert.Equal(t, []float64{20, 12, 0}, BuildSeries(assignments, blocks, start, 3, AggregationHours))
	assert.Equal(t, []float64{1, 1, 0}, BuildSeries(assignments, blocks, start, 3, AggregationBinary))
	assert.Equal(t, []float64{2, 1, 0}, BuildSeries(assignments, blocks, start, 3, AggregationUniquePeople))
}

func TestBuildSeriesSkipsOutOfWindowDays(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	blocks := []model.Block{
		{ID: "early", Date: start.AddDate(0, 0, -1)},
		{ID: "late", Date: start.AddDate(0, 0, 10)},
	}
	assignments := []model.Assignment{
		{PersonID: "r1", BlockID: "early", Hours: 5},
		{PersonID: "r1", BlockID: "late", Hours: 5},
	}

	series := BuildSeries(assignments, blocks, start, 5, AggregationHours)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, series)
}
