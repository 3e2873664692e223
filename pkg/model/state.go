package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// CheckpointBoundary names the instants at which a draft may become
// authoritative.
type CheckpointBoundary string

const (
	BoundaryWeekStart   CheckpointBoundary = "WEEK_START"
	BoundaryBlockEnd    CheckpointBoundary = "BLOCK_END"
	BoundaryACGMEWindow CheckpointBoundary = "ACGME_WINDOW"
	BoundaryManual      CheckpointBoundary = "MANUAL"
)

// StateStatus is the lifecycle stage of a ScheduleState.
type StateStatus string

const (
	StatusDraft         StateStatus = "DRAFT"
	StatusAuthoritative StateStatus = "AUTHORITATIVE"
	StatusArchived      StateStatus = "ARCHIVED"
)

// ScheduleState is the authoritative-or-candidate snapshot the
// StroboscopicManager advances at checkpoint boundaries.
type ScheduleState struct {
	StateID           string
	CheckpointBoundary CheckpointBoundary
	CheckpointTime    time.Time
	Status            StateStatus
	Assignments       []Assignment
	Metadata          map[string]any
	ACGMECompliant    bool
	ValidationErrors  []string
	StateHash         string
}

// canonicalAssignment is the stable, ordering-independent encoding of one
// Assignment used to compute StateHash.
type canonicalAssignment struct {
	PersonID           string  `json:"person_id"`
	BlockID            string  `json:"block_id"`
	RotationTemplateID string  `json:"rotation_template_id"`
	Hours              float64 `json:"hours"`
}

// CanonicalEncoding returns the deterministic byte encoding of assignments
// plus checkpointTime that StateHash is computed over.
func CanonicalEncoding(assignments []Assignment, checkpointTime time.Time) []byte {
	sorted := make([]canonicalAssignment, len(assignments))
	for i, a := range assignments {
		sorted[i] = canonicalAssignment{
			PersonID:           a.PersonID,
			BlockID:            a.BlockID,
			RotationTemplateID: a.RotationTemplateID,
			Hours:              a.Hours,
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PersonID != sorted[j].PersonID {
			return sorted[i].PersonID < sorted[j].PersonID
		}
		return sorted[i].BlockID < sorted[j].BlockID
	})
	envelope := struct {
		Assignments    []canonicalAssignment `json:"assignments"`
		CheckpointTime int64                 `json:"checkpoint_time"`
	}{Assignments: sorted, CheckpointTime: checkpointTime.UTC().UnixNano()}
	// json.Marshal on a value built entirely from non-map fields is
	// deterministic, so this is safe to feed to a hash.
	b, err := json.Marshal(envelope)
	if err != nil {
		panic(err) // unreachable: envelope contains only marshalable primitives
	}
	return b
}

// ComputeStateHash returns the lowercase hex SHA-256 of CanonicalEncoding.
func ComputeStateHash(assignments []Assignment, checkpointTime time.Time) string {
	sum := sha256.Sum256(CanonicalEncoding(assignments, checkpointTime))
	return hex.EncodeToString(sum[:])
}

// Rehash recomputes and sets StateHash from the state's current Assignments
// and CheckpointTime.
func (s *ScheduleState) Rehash() {
	s.StateHash = ComputeStateHash(s.Assignments, s.CheckpointTime)
}

// VerifyHash reports whether StateHash matches the canonical encoding of
// Assignments and CheckpointTime.
func (s *ScheduleState) VerifyHash() bool {
	return s.StateHash == ComputeStateHash(s.Assignments, s.CheckpointTime)
}
