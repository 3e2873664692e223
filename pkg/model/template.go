package model

import "k8s.io/apimachinery/pkg/util/sets"

// ActivityType enumerates the rotation's clinical flavor.
type ActivityType string

const (
	ActivityInpatient  ActivityType = "inpatient"
	ActivityOutpatient ActivityType = "outpatient"
	ActivityClinic     ActivityType = "clinic"
	ActivityNightFloat ActivityType = "night_float"
	ActivityProcedure  ActivityType = "procedure"
	ActivityCall       ActivityType = "call"
)

// RotationTemplate describes one kind of rotation slot that Assignments
// may reference.
type RotationTemplate struct {
	ID                    string
	Name                  string
	ActivityType          ActivityType
	AllowedPGY            sets.Set[int]
	RequiredCertifications sets.Set[string]
	MinCoverage           int
	TargetCoverage        int
	MaxCoverage           int
	HoursPerBlock         float64
	RequiresSupervision   bool
}

// AllowsPGY reports whether pgyLevel (0 for non-residents) is permitted by
// the template. Non-residents (pgyLevel == 0) are always allowed; the PGY
// restriction only applies to residents.
func (t RotationTemplate) AllowsPGY(pgyLevel int) bool {
	if pgyLevel == 0 {
		return true
	}
	if t.AllowedPGY == nil || t.AllowedPGY.Len() == 0 {
		return true
	}
	return t.AllowedPGY.Has(pgyLevel)
}
