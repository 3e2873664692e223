// Package snapshot provides a reference SnapshotStore, persisting
// ScheduleStates keyed by state id with per-schedule history kept in
// ascending checkpoint-time order.
package snapshot

import (
	"context"
	"sort"
	"sync"

	"github.com/meridian-health/resicore/pkg/errs"
	"github.com/meridian-health/resicore/pkg/model"
)

// Store is an in-memory model.SnapshotStore. Production deployments would
// back this with a durable store; the in-memory form is sufficient to
// satisfy the interface for single-process operation and tests.
type Store struct {
	mu        sync.RWMutex
	byStateID map[string]model.ScheduleState
	bySchedule map[string][]string // scheduleID -> state ids, ascending checkpoint_time
}

var _ model.SnapshotStore = (*Store)(nil)

// NewStore returns an empty snapshot store.
func NewStore() *Store {
	return &Store{
		byStateID:  make(map[string]model.ScheduleState),
		bySchedule: make(map[string][]string),
	}
}

// Put persists state under scheduleID, inserting into that schedule's
// history in checkpoint-time order. Re-putting an existing state id
// overwrites it in place without duplicating the history entry.
func (s *Store) Put(ctx context.Context, scheduleID string, state model.ScheduleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.byStateID[state.StateID]
	s.byStateID[state.StateID] = state
	if existed {
		return nil
	}

	ids := append(s.bySchedule[scheduleID], state.StateID)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.byStateID[ids[i]].CheckpointTime.Before(s.byStateID[ids[j]].CheckpointTime)
	})
	s.bySchedule[scheduleID] = ids
	return nil
}

// Get returns the state with the given id.
func (s *Store) Get(ctx context.Context, stateID string) (model.ScheduleState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.byStateID[stateID]
	if !ok {
		return model.ScheduleState{}, errs.Wrap(errs.ErrStateNotFound, "state_id", stateID)
	}
	return state, nil
}

// ListHistory returns every state ever put under scheduleID, ascending by
// checkpoint time.
func (s *Store) ListHistory(ctx context.Context, scheduleID string) ([]model.ScheduleState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bySchedule[scheduleID]
	out := make([]model.ScheduleState, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byStateID[id])
	}
	return out, nil
}
