package model

import "k8s.io/apimachinery/pkg/util/sets"

// Role classifies a Person within the scheduling domain.
type Role string

const (
	RoleResident Role = "RESIDENT"
	RoleFaculty  Role = "FACULTY"
	RoleAdmin    Role = "ADMIN"
)

// PersonStatus is a caller-defined lifecycle tag (active, on leave, ...);
// the core treats it as opaque except where noted.
type PersonStatus string

// Person is a resident, faculty member, or administrator eligible for
// assignment. Immutable from the core's perspective within one run.
type Person struct {
	ID                string
	Role              Role
	PGYLevel          int // 0 means "not a resident" / unset
	Status            PersonStatus
	MaxHoursPerWeek   float64
	Certifications    sets.Set[string]
	CanSupervise      bool
	BackupFor         sets.Set[string]
}

// IsResident reports whether the person holds a resident role.
func (p Person) IsResident() bool {
	return p.Role == RoleResident
}

// HasCertifications reports whether p holds every certification in required.
func (p Person) HasCertifications(required sets.Set[string]) bool {
	if required.Len() == 0 {
		return true
	}
	if p.Certifications == nil {
		return false
	}
	return required.Difference(p.Certifications).Len() == 0
}
