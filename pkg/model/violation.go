package model

import "k8s.io/apimachinery/pkg/util/sets"

// Tier classifies a constraint: regulatory rules that must hold,
// institutional policy that may be overridden with recorded approval,
// and soft preferences that contribute weighted penalty.
type Tier int

const (
	TierRegulatory   Tier = 1
	TierInstitutional Tier = 2
	TierSoft         Tier = 3
)

// Severity is a human-facing classification of a Violation's impact.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Priority is the tier-3 weight multiplier.
type Priority int

const (
	PriorityCritical Priority = 100
	PriorityHigh     Priority = 75
	PriorityMedium   Priority = 50
	PriorityLow      Priority = 25
)

// Violation is a single constraint failure surfaced by the ConstraintEngine.
type Violation struct {
	ConstraintName string
	Tier           Tier
	Severity       Severity
	People         sets.Set[string]
	Blocks         sets.Set[string]
	Message        string
	Details        map[string]any
}
