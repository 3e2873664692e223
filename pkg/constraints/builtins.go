package constraints

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/model"
)

const (
	workHourWindowDays  = 28
	workHourLimit       = 320.0
	oneInSevenWindowDays = 7
	dutyPeriodLimitHours = 24.0
	nightFloatRunLimit   = 6
	pgy1SupervisionRatio = 2.0
	seniorSupervisionRatio = 4.0
)

// RegisterBuiltins registers the standard constraint set, each with its
// default weight and priority for tier-3 rules.
func RegisterBuiltins(catalog *Catalog) error {
	builtins := []Constraint{
		workHour80(),
		oneInSeven(),
		supervisionRatio(),
		dutyPeriodLimit(),
		nightFloatLimit(),
		absenceBlocking(),
		qualification(),
		coverageMin(),
		coverageTarget(),
		workloadEquity(),
		shiftPreference(),
		teamContinuity(),
	}
	for _, b := range builtins {
		if err := catalog.Register(b); err != nil {
			return registrationError(b.Name, err)
		}
	}
	return nil
}

func workHour80() Constraint {
	return Constraint{Name: "WorkHour80", Tier: model.TierRegulatory, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		blockByID := ctx.BlockByID()
		var violations []model.Violation
		for personID, personAssignments := range assignmentsByPerson(assignments) {
			blocks := sortedPersonBlocks(personAssignments, blockByID)
			for _, b := range blocks {
				windowStart := b.Date
				windowEnd := windowStart.AddDate(0, 0, workHourWindowDays)
				total := rollingWindowHours(personAssignments, blockByID, windowStart, windowEnd)
				if total > workHourLimit {
					violations = append(violations, model.Violation{
						ConstraintName: "WorkHour80",
						Tier:           model.TierRegulatory,
						Severity:       model.SeverityCritical,
						People:         sets.New(personID),
						Message:        fmt.Sprintf("person %s: %.1f hours in 28-day window starting %s exceeds 320", personID, total, windowStart.Format("2006-01-02")),
						Details:        map[string]any{"hours": total, "window_start": windowStart},
					})
				}
			}
		}
		return violations
	}}
}

func oneInSeven() Constraint {
	return Constraint{Name: "OneInSeven", Tier: model.TierRegulatory, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		blockByID := ctx.BlockByID()
		var violations []model.Violation
		for personID, personAssignments := range assignmentsByPerson(assignments) {
			occupied := sets.New[string]()
			for _, a := range personAssignments {
				if b, ok := blockByID[a.BlockID]; ok {
					occupied.Insert(b.Date.Format("2006-01-02"))
				}
			}
			blocks := sortedPersonBlocks(personAssignments, blockByID)
			if len(blocks) == 0 {
				continue
			}
			start := blocks[0].Date
			end := blocks[len(blocks)-1].Date
			for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
				allOccupied := true
				for i := 0; i < oneInSevenWindowDays; i++ {
					if !occupied.Has(day.AddDate(0, 0, i).Format("2006-01-02")) {
						allOccupied = false
						break
					}
				}
				if allOccupied {
					violations = append(violations, model.Violation{
						ConstraintName: "OneInSeven",
						Tier:           model.TierRegulatory,
						Severity:       model.SeverityCritical,
						People:         sets.New(personID),
						Message:        fmt.Sprintf("person %s: no day off in 7-day window starting %s", personID, day.Format("2006-01-02")),
						Details:        map[string]any{"window_start": day},
					})
				}
			}
		}
		return violations
	}}
}

func supervisionRatio() Constraint {
	return Constraint{Name: "SupervisionRatio", Tier: model.TierRegulatory, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		personByID := ctx.PersonByID()
		var violations []model.Violation
		for blockID, blockAssignments := range assignmentsByBlock(assignments) {
			var pgy1, senior, faculty int
			for _, a := range blockAssignments {
				p, ok := personByID[a.PersonID]
				if !ok {
					continue
				}
				switch {
				case p.Role == model.RoleFaculty:
					faculty++
				case p.IsResident() && p.PGYLevel == 1:
					pgy1++
				case p.IsResident() && p.PGYLevel >= 2:
					senior++
				}
			}
			if faculty == 0 {
				if pgy1+senior > 0 {
					violations = append(violations, supervisionViolation(blockID, pgy1, senior, faculty))
				}
				continue
			}
			if float64(pgy1)/float64(faculty) > pgy1SupervisionRatio || float64(senior)/float64(faculty) > seniorSupervisionRatio {
				violations = append(violations, supervisionViolation(blockID, pgy1, senior, faculty))
			}
		}
		return violations
	}}
}

func supervisionViolation(blockID string, pgy1, senior, faculty int) model.Violation {
	return model.Violation{
		ConstraintName: "SupervisionRatio",
		Tier:           model.TierRegulatory,
		Severity:       model.SeverityCritical,
		Blocks:         sets.New(blockID),
		Message:        fmt.Sprintf("block %s: %d PGY-1 + %d senior residents with %d faculty exceeds supervision ratio", blockID, pgy1, senior, faculty),
		Details:        map[string]any{"pgy1": pgy1, "senior": senior, "faculty": faculty},
	}
}

func dutyPeriodLimit() Constraint {
	return Constraint{Name: "DutyPeriodLimit", Tier: model.TierRegulatory, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		blockByID := ctx.BlockByID()
		var violations []model.Violation
		for personID, personAssignments := range assignmentsByPerson(assignments) {
			hoursByBlockID := make(map[string]float64, len(personAssignments))
			for _, a := range personAssignments {
				hoursByBlockID[a.BlockID] += a.Hours
			}
			blocks := sortedPersonBlocks(personAssignments, blockByID)
			for _, run := range consecutiveRuns(blocks) {
				var total float64
				for _, b := range run {
					total += hoursByBlockID[b.ID]
				}
				if total > dutyPeriodLimitHours {
					violations = append(violations, model.Violation{
						ConstraintName: "DutyPeriodLimit",
						Tier:           model.TierRegulatory,
						Severity:       model.SeverityCritical,
						People:         sets.New(personID),
						Blocks:         blockIDSet(run),
						Message:        fmt.Sprintf("person %s: continuous duty period of %.1f hours exceeds %g", personID, total, dutyPeriodLimitHours),
						Details:        map[string]any{"hours": total},
					})
				}
			}
		}
		return violations
	}}
}

func nightFloatLimit() Constraint {
	return Constraint{Name: "NightFloatLimit", Tier: model.TierRegulatory, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		blockByID := ctx.BlockByID()
		templateByID := ctx.TemplateByID()
		var violations []model.Violation
		for personID, personAssignments := range assignmentsByPerson(assignments) {
			var nightFloat []model.Assignment
			for _, a := range personAssignments {
				if t, ok := templateByID[a.RotationTemplateID]; ok && t.ActivityType == model.ActivityNightFloat {
					nightFloat = append(nightFloat, a)
				}
			}
			blocks := sortedPersonBlocks(nightFloat, blockByID)
			for _, run := range consecutiveRuns(blocks) {
				if len(run) > nightFloatRunLimit {
					violations = append(violations, model.Violation{
						ConstraintName: "NightFloatLimit",
						Tier:           model.TierRegulatory,
						Severity:       model.SeverityCritical,
						People:         sets.New(personID),
						Blocks:         blockIDSet(run),
						Message:        fmt.Sprintf("person %s: %d consecutive night-float blocks exceeds %d", personID, len(run), nightFloatRunLimit),
						Details:        map[string]any{"run_length": len(run)},
					})
				}
			}
		}
		return violations
	}}
}

func absenceBlocking() Constraint {
	return Constraint{Name: "AbsenceBlocking", Tier: model.TierRegulatory, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		blockByID := ctx.BlockByID()
		absencesByPerson := ctx.AbsencesByPerson()
		var violations []model.Violation
		for _, a := range assignments {
			b, ok := blockByID[a.BlockID]
			if !ok {
				continue
			}
			for _, absence := range absencesByPerson[a.PersonID] {
				if absence.Kind.Blocking() && absence.Overlaps(b.Date) {
					violations = append(violations, model.Violation{
						ConstraintName: "AbsenceBlocking",
						Tier:           model.TierRegulatory,
						Severity:       model.SeverityCritical,
						People:         sets.New(a.PersonID),
						Blocks:         sets.New(a.BlockID),
						Message:        fmt.Sprintf("person %s assigned to block %s during %s", a.PersonID, a.BlockID, absence.Kind),
					})
				}
			}
		}
		return violations
	}}
}

func qualification() Constraint {
	return Constraint{Name: "Qualification", Tier: model.TierRegulatory, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		personByID := ctx.PersonByID()
		templateByID := ctx.TemplateByID()
		var violations []model.Violation
		for _, a := range assignments {
			p, pok := personByID[a.PersonID]
			t, tok := templateByID[a.RotationTemplateID]
			if !pok || !tok {
				continue
			}
			if !t.AllowsPGY(p.PGYLevel) || !p.HasCertifications(t.RequiredCertifications) {
				violations = append(violations, model.Violation{
					ConstraintName: "Qualification",
					Tier:           model.TierRegulatory,
					Severity:       model.SeverityCritical,
					People:         sets.New(a.PersonID),
					Blocks:         sets.New(a.BlockID),
					Message:        fmt.Sprintf("person %s does not meet requirements of template %s", a.PersonID, t.ID),
				})
			}
		}
		return violations
	}}
}

func coverageMin() Constraint {
	return Constraint{Name: "CoverageMin", Tier: model.TierInstitutional, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		return coverageShortfall(assignments, ctx, "CoverageMin", model.TierInstitutional, model.SeverityHigh, func(t model.RotationTemplate) int { return t.MinCoverage })
	}}
}

func coverageTarget() Constraint {
	return Constraint{Name: "CoverageTarget", Tier: model.TierSoft, Weight: 1.0, Priority: model.PriorityMedium, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		return coverageShortfall(assignments, ctx, "CoverageTarget", model.TierSoft, model.SeverityLow, func(t model.RotationTemplate) int { return t.TargetCoverage })
	}}
}

func coverageShortfall(assignments []model.Assignment, ctx *model.SchedulingContext, name string, tier model.Tier, severity model.Severity, threshold func(model.RotationTemplate) int) []model.Violation {
	type key struct{ blockID, templateID string }
	counts := make(map[key]int)
	for _, a := range assignments {
		counts[key{a.BlockID, a.RotationTemplateID}]++
	}
	var violations []model.Violation
	for _, b := range ctx.Blocks {
		for _, t := range ctx.Templates {
			required := threshold(t)
			if required <= 0 {
				continue
			}
			if counts[key{b.ID, t.ID}] < required {
				violations = append(violations, model.Violation{
					ConstraintName: name,
					Tier:           tier,
					Severity:       severity,
					Blocks:         sets.New(b.ID),
					Message:        fmt.Sprintf("block %s template %s: %d assignees below required %d", b.ID, t.ID, counts[key{b.ID, t.ID}], required),
					Details:        map[string]any{"template_id": t.ID, "count": counts[key{b.ID, t.ID}], "required": required},
				})
			}
		}
	}
	return violations
}

func workloadEquity() Constraint {
	return Constraint{Name: "WorkloadEquity", Tier: model.TierSoft, Weight: 1.0, Priority: model.PriorityLow, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		byPerson := assignmentsByPerson(assignments)
		if len(byPerson) < 2 {
			return nil
		}
		hours := make([]float64, 0, len(byPerson))
		affected := sets.New[string]()
		for personID, personAssignments := range byPerson {
			var total float64
			for _, a := range personAssignments {
				total += a.Hours
			}
			hours = append(hours, total)
			affected.Insert(personID)
		}
		g := gini(hours)
		if g <= 0.1 {
			return nil
		}
		return []model.Violation{{
			ConstraintName: "WorkloadEquity",
			Tier:           model.TierSoft,
			Severity:       model.SeverityLow,
			People:         affected,
			Message:        fmt.Sprintf("workload Gini coefficient %.3f indicates uneven hour distribution", g),
			Details:        map[string]any{"gini": g},
		}}
	}}
}

func shiftPreference() Constraint {
	return Constraint{Name: "ShiftPreference", Tier: model.TierSoft, Weight: 1.0, Priority: model.PriorityLow, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		type key struct{ personID, blockID string }
		preferred := make(map[key]string, len(ctx.Preferences))
		for _, pref := range ctx.Preferences {
			if pref.PreferredTemplateID != "" {
				preferred[key{pref.PersonID, pref.BlockID}] = pref.PreferredTemplateID
			}
		}
		var violations []model.Violation
		for _, a := range assignments {
			wanted, ok := preferred[key{a.PersonID, a.BlockID}]
			if !ok || wanted == a.RotationTemplateID {
				continue
			}
			violations = append(violations, model.Violation{
				ConstraintName: "ShiftPreference",
				Tier:           model.TierSoft,
				Severity:       model.SeverityInfo,
				People:         sets.New(a.PersonID),
				Blocks:         sets.New(a.BlockID),
				Message:        fmt.Sprintf("person %s assigned %s, preferred %s", a.PersonID, a.RotationTemplateID, wanted),
			})
		}
		return violations
	}}
}

func teamContinuity() Constraint {
	return Constraint{Name: "TeamContinuity", Tier: model.TierSoft, Weight: 1.0, Priority: model.PriorityLow, Violates: func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation {
		blockByID := ctx.BlockByID()
		var violations []model.Violation
		for personID, personAssignments := range assignmentsByPerson(assignments) {
			templateByBlockID := make(map[string]string, len(personAssignments))
			for _, a := range personAssignments {
				templateByBlockID[a.BlockID] = a.RotationTemplateID
			}
			blocks := sortedPersonBlocks(personAssignments, blockByID)
			for _, run := range consecutiveRuns(blocks) {
				for i := 1; i < len(run); i++ {
					prevTemplate := templateByBlockID[run[i-1].ID]
					curTemplate := templateByBlockID[run[i].ID]
					if prevTemplate != curTemplate {
						violations = append(violations, model.Violation{
							ConstraintName: "TeamContinuity",
							Tier:           model.TierSoft,
							Severity:       model.SeverityInfo,
							People:         sets.New(personID),
							Blocks:         sets.New(run[i-1].ID, run[i].ID),
							Message:        fmt.Sprintf("person %s: team changed between consecutive blocks %s and %s", personID, run[i-1].ID, run[i].ID),
						})
					}
				}
			}
		}
		return violations
	}}
}

func blockIDSet(blocks []model.Block) sets.Set[string] {
	out := sets.New[string]()
	for _, b := range blocks {
		out.Insert(b.ID)
	}
	return out
}
