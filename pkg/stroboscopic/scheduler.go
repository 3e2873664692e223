package stroboscopic

import (
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/model"
)

// CheckpointScheduler computes the next enabled checkpoint boundary due
// after a given time, given when each boundary was last fired.
type CheckpointScheduler struct {
	Enabled sets.Set[model.CheckpointBoundary]
}

// NewCheckpointScheduler returns a scheduler restricted to enabled.
func NewCheckpointScheduler(enabled sets.Set[model.CheckpointBoundary]) *CheckpointScheduler {
	return &CheckpointScheduler{Enabled: enabled}
}

// NextDue returns the earliest enabled boundary due at or after `after`,
// given the last time each boundary fired (zero value if never). Returns
// ok=false if no boundary is enabled.
func (s *CheckpointScheduler) NextDue(after time.Time, lastByBoundary map[model.CheckpointBoundary]time.Time) (model.CheckpointBoundary, time.Time, bool) {
	if s.Enabled.Len() == 0 {
		return "", time.Time{}, false
	}

	var bestBoundary model.CheckpointBoundary
	var bestTime time.Time
	found := false

	for _, boundary := range s.Enabled.UnsortedList() {
		due := s.dueTimeFor(boundary, after, lastByBoundary[boundary])
		if !found || due.Before(bestTime) {
			bestBoundary, bestTime, found = boundary, due, true
		}
	}
	return bestBoundary, bestTime, found
}

func (s *CheckpointScheduler) dueTimeFor(boundary model.CheckpointBoundary, after, last time.Time) time.Time {
	switch boundary {
	case model.BoundaryWeekStart:
		return nextWeekStart(after)
	case model.BoundaryACGMEWindow:
		if last.IsZero() {
			return after
		}
		due := last.AddDate(0, 0, 28)
		if due.Before(after) {
			return after
		}
		return due
	case model.BoundaryBlockEnd:
		// Without a concrete block calendar the scheduler cannot know the
		// exact rotation boundary; callers that enable BLOCK_END are
		// expected to fire Manual-equivalent advances at block transitions
		// they observe directly. Treat it as always-due so NextDue never
		// silently starves it.
		return after
	case model.BoundaryManual:
		// Manual boundaries are never scheduler-driven.
		return time.Time{}.AddDate(9999, 0, 0)
	default:
		return time.Time{}.AddDate(9999, 0, 0)
	}
}

func nextWeekStart(after time.Time) time.Time {
	local := after
	daysUntilMonday := (int(time.Monday) - int(local.Weekday()) + 7) % 7
	candidate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location()).AddDate(0, 0, daysUntilMonday)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}
