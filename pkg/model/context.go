package model

// Preference is a caller-declared soft scheduling preference. The
// ShiftPreference tier-3 constraint reads PreferredTemplateID; no built-in
// constraint reads PreferredTeamID.
type Preference struct {
	PersonID           string
	BlockID            string
	PreferredTemplateID string
	PreferredTeamID    string
}

// SchedulingContext is the read-only input to a solver run: every entity
// the solver and constraint engine need to reason about one scheduling
// problem instance. Owned by the calling environment and loaned read-only
// for the duration of an operation.
type SchedulingContext struct {
	Residents   []Person
	Faculty     []Person
	Blocks      []Block // ordered by date
	Templates   []RotationTemplate
	Absences    []Absence
	Preferences []Preference
}

// AllPeople returns residents and faculty combined.
func (c *SchedulingContext) AllPeople() []Person {
	out := make([]Person, 0, len(c.Residents)+len(c.Faculty))
	out = append(out, c.Residents...)
	out = append(out, c.Faculty...)
	return out
}

// PersonByID indexes all people (residents + faculty) by id.
func (c *SchedulingContext) PersonByID() map[string]Person {
	idx := make(map[string]Person, len(c.Residents)+len(c.Faculty))
	for _, p := range c.AllPeople() {
		idx[p.ID] = p
	}
	return idx
}

// TemplateByID indexes templates by id.
func (c *SchedulingContext) TemplateByID() map[string]RotationTemplate {
	idx := make(map[string]RotationTemplate, len(c.Templates))
	for _, t := range c.Templates {
		idx[t.ID] = t
	}
	return idx
}

// BlockByID indexes blocks by id.
func (c *SchedulingContext) BlockByID() map[string]Block {
	idx := make(map[string]Block, len(c.Blocks))
	for _, b := range c.Blocks {
		idx[b.ID] = b
	}
	return idx
}

// AbsencesByPerson groups absences by person id.
func (c *SchedulingContext) AbsencesByPerson() map[string][]Absence {
	idx := make(map[string][]Absence, len(c.Absences))
	for _, a := range c.Absences {
		idx[a.PersonID] = append(idx[a.PersonID], a)
	}
	return idx
}
