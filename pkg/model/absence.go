package model

import "time"

// AbsenceKind classifies an Absence's effect on scheduling eligibility.
type AbsenceKind string

const (
	AbsenceDeployment     AbsenceKind = "DEPLOYMENT"
	AbsenceExtendedLeave  AbsenceKind = "EXTENDED_LEAVE"
	AbsenceVacation       AbsenceKind = "VACATION"
	AbsenceConference     AbsenceKind = "CONFERENCE"
	AbsenceSick           AbsenceKind = "SICK"
	AbsenceParental       AbsenceKind = "PARENTAL"
)

// Blocking reports whether this kind of absence fully blocks scheduling
// (DEPLOYMENT, EXTENDED_LEAVE) rather than merely reducing capacity.
func (k AbsenceKind) Blocking() bool {
	return k == AbsenceDeployment || k == AbsenceExtendedLeave
}

// Absence records a period during which a person is partially or fully
// unavailable for scheduling.
type Absence struct {
	PersonID  string
	StartDate time.Time
	EndDate   time.Time
	Kind      AbsenceKind
}

// Overlaps reports whether the absence's [StartDate, EndDate] range
// (inclusive) overlaps the given calendar day.
func (a Absence) Overlaps(day time.Time) bool {
	d := normalizeDay(day)
	return !d.Before(normalizeDay(a.StartDate)) && !d.After(normalizeDay(a.EndDate))
}

func normalizeDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
