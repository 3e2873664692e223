// Package stroboscopic implements the single-authoritative-schedule state
// machine: a draft is staged, validated, and atomically promoted to
// authoritative only at a checkpoint boundary, with every prior
// authoritative state kept in an append-only history.
package stroboscopic

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-health/resicore/internal/obslog"
	"github.com/meridian-health/resicore/internal/obsmetrics"
	"github.com/meridian-health/resicore/pkg/constraints"
	"github.com/meridian-health/resicore/pkg/errs"
	"github.com/meridian-health/resicore/pkg/model"
	"github.com/meridian-health/resicore/pkg/solver"
)

// Manager is a StroboscopicManager for one schedule identity.
type Manager struct {
	scheduleID string

	authoritative atomic.Pointer[model.ScheduleState]

	draftMu sync.Mutex
	draft   *model.ScheduleState

	lock      model.DistributedLock
	bus       model.EventBus
	snapshots model.SnapshotStore
	catalog   *constraints.Catalog
	clock     model.Clock
	churn     solver.AntiChurnObjective

	lockTTL    time.Duration
	strictMode bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewScheduleID mints a fresh schedule identity for callers that don't
// bring their own.
func NewScheduleID() string {
	return uuid.NewString()
}

// NewManager constructs a Manager seeded with an initial authoritative
// state (typically an empty schedule). clock may be nil to use the system
// clock.
func NewManager(
	scheduleID string,
	initial model.ScheduleState,
	lock model.DistributedLock,
	bus model.EventBus,
	snapshots model.SnapshotStore,
	catalog *constraints.Catalog,
	clock model.Clock,
	lockTTL time.Duration,
	strictMode bool,
) *Manager {
	if clock == nil {
		clock = realClock{}
	}
	if initial.Status == "" {
		initial.Status = model.StatusAuthoritative
	}
	initial.Rehash()

	m := &Manager{
		scheduleID: scheduleID,
		lock:       lock,
		bus:        bus,
		snapshots:  snapshots,
		catalog:    catalog,
		clock:      clock,
		lockTTL:    lockTTL,
		strictMode: strictMode,
	}
	m.authoritative.Store(&initial)
	return m
}

func (m *Manager) lockKey() string {
	return "schedule:" + m.scheduleID + ":checkpoint"
}

// GetObservableState returns the current authoritative state. It never
// blocks and takes no lock: it is an atomic pointer load.
func (m *Manager) GetObservableState() model.ScheduleState {
	return *m.authoritative.Load()
}

// ProposeDraft stages assignments as a fresh DRAFT state, replacing any
// existing draft. It does not affect observers of GetObservableState.
func (m *Manager) ProposeDraft(assignments []model.Assignment, metadata map[string]any, createdBy string) string {
	state := model.ScheduleState{
		StateID:         uuid.NewString(),
		CheckpointTime:  m.clock.Now(),
		Status:          model.StatusDraft,
		Assignments:     assignments,
		Metadata:        cloneMetadata(metadata, createdBy),
	}
	state.Rehash()

	m.draftMu.Lock()
	m.draft = &state
	m.draftMu.Unlock()

	return state.StateID
}

func cloneMetadata(metadata map[string]any, createdBy string) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["created_by"] = createdBy
	return out
}

// DiscardDraft removes the currently staged draft, if any.
func (m *Manager) DiscardDraft() {
	m.draftMu.Lock()
	m.draft = nil
	m.draftMu.Unlock()
}

// AdvanceCheckpoint acquires the schedule's checkpoint lock, validates
// the draft against schedCtx, and atomically promotes it to
// authoritative, archiving the prior state and publishing a
// CheckpointEvent.
func (m *Manager) AdvanceCheckpoint(ctx context.Context, boundary model.CheckpointBoundary, triggeredBy string, schedCtx *model.SchedulingContext) (model.CheckpointEvent, error) {
	start := time.Now()
	handle, err := m.lock.TryAcquire(ctx, m.lockKey(), m.lockTTL)
	if err != nil {
		obsmetrics.CheckpointLockContention.WithLabelValues(string(boundary)).Inc()
		return model.CheckpointEvent{}, err
	}
	defer func() { _ = m.lock.Release(ctx, handle) }()

	m.draftMu.Lock()
	draft := m.draft
	m.draftMu.Unlock()
	if draft == nil {
		return model.CheckpointEvent{}, errs.Wrap(errs.ErrNoDraftAvailable, "schedule_id", m.scheduleID)
	}

	report := m.catalog.Evaluate(draft.Assignments, schedCtx, model.TierRegulatory)
	draft.ACGMECompliant = report.HardViolationCount == 0
	draft.ValidationErrors = violationMessages(report.Violations)
	if report.HardViolationCount > 0 && m.strictMode {
		return model.CheckpointEvent{}, errs.Wrap(errs.ErrCheckpointValidationFailed, "schedule_id", m.scheduleID, "hard_violations", report.HardViolationCount)
	}

	archived := m.authoritative.Load()
	assignmentsChanged := m.churn.Distance(archived.Assignments, draft.Assignments)

	archivedCopy := *archived
	archivedCopy.Status = model.StatusArchived

	promoted := *draft
	promoted.Status = model.StatusAuthoritative
	promoted.CheckpointBoundary = boundary
	promoted.Rehash()

	m.authoritative.Store(&promoted)
	m.draftMu.Lock()
	m.draft = nil
	m.draftMu.Unlock()

	if err := m.snapshots.Put(ctx, m.scheduleID, archivedCopy); err != nil {
		obslog.FromContext(ctx).Warnw("failed to persist archived state", "schedule_id", m.scheduleID, "error", err)
	}
	if err := m.snapshots.Put(ctx, m.scheduleID, promoted); err != nil {
		obslog.FromContext(ctx).Warnw("failed to persist promoted state", "schedule_id", m.scheduleID, "error", err)
	}

	event := model.CheckpointEvent{
		Kind:               model.EventCheckpointAdvanced,
		StateID:            promoted.StateID,
		PreviousStateID:    archivedCopy.StateID,
		Boundary:           boundary,
		OccurredAt:         m.clock.Now(),
		TriggeredBy:        triggeredBy,
		AssignmentsChanged: assignmentsChanged,
		ACGMECompliant:     promoted.ACGMECompliant,
		StateHash:          promoted.StateHash,
	}
	_ = m.bus.Publish(ctx, event)

	obsmetrics.CheckpointAdvanceDuration.WithLabelValues(string(boundary)).Observe(time.Since(start).Seconds())
	return event, nil
}

// RollbackTo restores an archived state as the new authoritative state,
// re-validating its assignments against the caller-supplied current
// context since people/templates may have changed since it was archived.
// It reuses AdvanceCheckpoint's lock key so it cannot race a concurrent
// checkpoint advance.
func (m *Manager) RollbackTo(ctx context.Context, stateID string, schedCtx *model.SchedulingContext) (model.CheckpointEvent, error) {
	restored, err := m.snapshots.Get(ctx, stateID)
	if err != nil {
		return model.CheckpointEvent{}, err
	}

	handle, err := m.lock.TryAcquire(ctx, m.lockKey(), m.lockTTL)
	if err != nil {
		obsmetrics.CheckpointLockContention.WithLabelValues(string(model.BoundaryManual)).Inc()
		return model.CheckpointEvent{}, err
	}
	defer func() { _ = m.lock.Release(ctx, handle) }()

	report := m.catalog.Evaluate(restored.Assignments, schedCtx, model.TierRegulatory)
	if report.HardViolationCount > 0 && m.strictMode {
		return model.CheckpointEvent{}, errs.Wrap(errs.ErrCheckpointValidationFailed, "schedule_id", m.scheduleID, "state_id", stateID, "hard_violations", report.HardViolationCount)
	}

	archived := m.authoritative.Load()
	archivedCopy := *archived
	archivedCopy.Status = model.StatusArchived

	restored.StateID = uuid.NewString()
	restored.Status = model.StatusAuthoritative
	restored.CheckpointTime = m.clock.Now()
	restored.ACGMECompliant = report.HardViolationCount == 0
	restored.ValidationErrors = violationMessages(report.Violations)
	restored.Rehash()

	m.authoritative.Store(&restored)

	if err := m.snapshots.Put(ctx, m.scheduleID, archivedCopy); err != nil {
		obslog.FromContext(ctx).Warnw("failed to persist archived state", "schedule_id", m.scheduleID, "error", err)
	}
	if err := m.snapshots.Put(ctx, m.scheduleID, restored); err != nil {
		obslog.FromContext(ctx).Warnw("failed to persist restored state", "schedule_id", m.scheduleID, "error", err)
	}

	event := model.CheckpointEvent{
		Kind:            model.EventRolledBack,
		StateID:         restored.StateID,
		PreviousStateID: archivedCopy.StateID,
		Boundary:        model.BoundaryManual,
		OccurredAt:      m.clock.Now(),
		ACGMECompliant:  restored.ACGMECompliant,
		StateHash:       restored.StateHash,
	}
	_ = m.bus.Publish(ctx, event)
	return event, nil
}

func violationMessages(violations []model.Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Message)
	}
	return out
}
