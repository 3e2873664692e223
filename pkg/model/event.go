package model

import "time"

// EventKind classifies a CheckpointEvent.
type EventKind string

const (
	EventCheckpointAdvanced EventKind = "CHECKPOINT_ADVANCED"
	EventDraftDiscarded     EventKind = "DRAFT_DISCARDED"
	EventRolledBack         EventKind = "ROLLED_BACK"
)

// CheckpointEvent is published to the EventBus whenever a draft becomes
// authoritative or the authoritative state is rolled back. Discarding a
// draft publishes no event, so the stroboscopic manager never emits
// EventDraftDiscarded.
type CheckpointEvent struct {
	Kind               EventKind
	StateID            string
	PreviousStateID    string
	Boundary           CheckpointBoundary
	OccurredAt         time.Time
	TriggeredBy        string
	AssignmentsChanged int
	ACGMECompliant     bool
	StateHash          string
}
