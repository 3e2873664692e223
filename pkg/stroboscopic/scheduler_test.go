package stroboscopic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/model"
)

func TestNextDueReturnsFalseWhenNothingEnabled(t *testing.T) {
	s := NewCheckpointScheduler(sets.New[model.CheckpointBoundary]())
	_, _, ok := s.NextDue(time.Now(), nil)
	assert.False(t, ok)
}

func TestNextDuePicksWeekStartBoundary(t *testing.T) {
	s := NewCheckpointScheduler(sets.New(model.BoundaryWeekStart))
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC) // a Monday
	boundary, due, ok := s.NextDue(monday.Add(time.Hour), nil)
	require.True(t, ok)
	assert.Equal(t, model.BoundaryWeekStart, boundary)
	assert.Equal(t, monday.AddDate(0, 0, 7), due)
}

func TestNextDuePicksACGMEWindowFromLastFired(t *testing.T) {
	s := NewCheckpointScheduler(sets.New(model.BoundaryACGMEWindow))
	last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	boundary, due, ok := s.NextDue(last.AddDate(0, 0, 1), map[model.CheckpointBoundary]time.Time{
		model.BoundaryACGMEWindow: last,
	})
	require.True(t, ok)
	assert.Equal(t, model.BoundaryACGMEWindow, boundary)
	assert.Equal(t, last.AddDate(0, 0, 28), due)
}

func TestNextDuePicksEarliestAcrossMultipleBoundaries(t *testing.T) {
	s := NewCheckpointScheduler(sets.New(model.BoundaryWeekStart, model.BoundaryACGMEWindow))
	after := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	last := after.AddDate(0, 0, -27) // ACGME due tomorrow, before next Monday
	boundary, _, ok := s.NextDue(after, map[model.CheckpointBoundary]time.Time{
		model.BoundaryACGMEWindow: last,
	})
	require.True(t, ok)
	assert.Equal(t, model.BoundaryACGMEWindow, boundary)
}
