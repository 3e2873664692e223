package model

import (
	"context"
	"time"
)

// PersonStore, BlockStore, TemplateStore, AssignmentStore, and AbsenceStore
// are the read-only data surfaces the caller must supply. Every method is
// side-effect free; implementations are expected to be backed by whatever
// system of record the deployment uses.

type PersonStore interface {
	List(ctx context.Context) ([]Person, error)
	ListByRange(ctx context.Context, start, end time.Time) ([]Person, error)
	GetByID(ctx context.Context, id string) (Person, error)
}

type BlockStore interface {
	List(ctx context.Context) ([]Block, error)
	ListByRange(ctx context.Context, start, end time.Time) ([]Block, error)
	GetByID(ctx context.Context, id string) (Block, error)
}

type TemplateStore interface {
	List(ctx context.Context) ([]RotationTemplate, error)
	ListByRange(ctx context.Context, start, end time.Time) ([]RotationTemplate, error)
	GetByID(ctx context.Context, id string) (RotationTemplate, error)
}

type AssignmentStore interface {
	List(ctx context.Context) ([]Assignment, error)
	ListByRange(ctx context.Context, start, end time.Time) ([]Assignment, error)
	GetByID(ctx context.Context, personID, blockID string) (Assignment, error)
}

type AbsenceStore interface {
	List(ctx context.Context) ([]Absence, error)
	ListByRange(ctx context.Context, start, end time.Time) ([]Absence, error)
	GetByID(ctx context.Context, personID string) ([]Absence, error)
}

// LockHandle is the opaque token returned by a successful DistributedLock
// acquisition; it must be presented to Release.
type LockHandle struct {
	Key   string
	Token string
	Until time.Time
}

// DistributedLock serializes checkpoint advancement across concurrent
// callers. TryAcquire returns errs.ErrLockContention (wrapped) if key is
// already held.
type DistributedLock interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (LockHandle, error)
	Release(ctx context.Context, handle LockHandle) error
}

// Subscription is returned by EventBus.Subscribe and passed to Unsubscribe.
type Subscription struct {
	ID        string
	EventKind EventKind
}

// EventHandler receives CheckpointEvents published to an EventBus.
type EventHandler func(ctx context.Context, event CheckpointEvent)

// EventBus fans CheckpointEvents out to subscribers with bounded,
// per-subscriber queues; slow subscribers never block the publisher.
type EventBus interface {
	Publish(ctx context.Context, event CheckpointEvent) error
	Subscribe(kind EventKind, handler EventHandler) Subscription
	Unsubscribe(sub Subscription)
}

// SnapshotStore persists ScheduleStates, keyed by StateID, with history
// indexed by scheduleID in ascending CheckpointTime.
type SnapshotStore interface {
	Put(ctx context.Context, scheduleID string, state ScheduleState) error
	Get(ctx context.Context, stateID string) (ScheduleState, error)
	ListHistory(ctx context.Context, scheduleID string) ([]ScheduleState, error)
}

// Clock is injectable wall-clock time, kept out of business logic so tests
// can run deterministically.
type Clock interface {
	Now() time.Time
}

// Rng is an injectable, seedable source of randomness used by solver
// backends and the spin-glass replica generator so runs are reproducible
// given the same seed.
type Rng interface {
	Seed(seed uint64)
	NextF64() float64
	NextU64() uint64
}
