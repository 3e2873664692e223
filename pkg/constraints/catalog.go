// Package constraints implements the tiered constraint catalog and
// evaluation engine: tier-1 regulatory rules that must hold, tier-2
// institutional rules that are reported but not necessarily blocking, and
// tier-3 soft preferences that contribute weighted penalty.
package constraints

import (
	"fmt"
	"sort"
	"sync"

	"github.com/meridian-health/resicore/pkg/errs"
	"github.com/meridian-health/resicore/pkg/model"
)

// Predicate evaluates one constraint against an assignment set and
// scheduling context, returning every violation found.
type Predicate func(assignments []model.Assignment, ctx *model.SchedulingContext) []model.Violation

// Constraint is a single named, tiered rule registered with a Catalog.
type Constraint struct {
	Name     string
	Tier     model.Tier
	Weight   float64
	Priority model.Priority
	Violates Predicate
}

// TierSummary aggregates one tier's contribution to a Report.
type TierSummary struct {
	ViolationCount int
	SoftPenalty    float64
}

// Report is the result of Catalog.Evaluate.
type Report struct {
	Violations        []model.Violation
	SoftPenalty       float64
	HardViolationCount int
	ByTier            map[model.Tier]TierSummary
}

type registered struct {
	constraint Constraint
	enabled    bool
	seq        int
}

// Catalog holds the registered constraints and evaluates them against
// assignment sets. Safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	byName map[string]*registered
	next  int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]*registered)}
}

// Register adds a constraint under its Name, which must be unique.
func (c *Catalog) Register(constraint Constraint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byName[constraint.Name]; exists {
		return errs.Wrap(errs.ErrConfig, "constraint", constraint.Name, "reason", "duplicate name")
	}
	c.byName[constraint.Name] = &registered{constraint: constraint, enabled: true, seq: c.next}
	c.next++
	return nil
}

// Enable turns a registered constraint back on.
func (c *Catalog) Enable(name string) error {
	return c.setEnabled(name, true)
}

// Disable excludes a registered constraint from future Evaluate calls.
func (c *Catalog) Disable(name string) error {
	return c.setEnabled(name, false)
}

func (c *Catalog) setEnabled(name string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.byName[name]
	if !ok {
		return errs.Wrap(errs.ErrConfig, "constraint", name, "reason", "not registered")
	}
	r.enabled = enabled
	return nil
}

// Evaluate runs every enabled constraint whose tier is in tiers (all tiers
// if tiers is empty) against assignments, in deterministic name order
// (ties broken by registration order, which cannot occur since names are
// unique, but is kept for a stable sort regardless).
func (c *Catalog) Evaluate(assignments []model.Assignment, ctx *model.SchedulingContext, tiers ...model.Tier) Report {
	c.mu.RLock()
	active := make([]*registered, 0, len(c.byName))
	for _, r := range c.byName {
		if !r.enabled {
			continue
		}
		if len(tiers) > 0 && !tierIncluded(r.constraint.Tier, tiers) {
			continue
		}
		active = append(active, r)
	}
	c.mu.RUnlock()

	sort.Slice(active, func(i, j int) bool {
		if active[i].constraint.Name != active[j].constraint.Name {
			return active[i].constraint.Name < active[j].constraint.Name
		}
		return active[i].seq < active[j].seq
	})

	report := Report{ByTier: make(map[model.Tier]TierSummary)}
	for _, r := range active {
		violations := r.constraint.Violates(assignments, ctx)
		if len(violations) == 0 {
			continue
		}
		summary := report.ByTier[r.constraint.Tier]
		summary.ViolationCount += len(violations)

		switch r.constraint.Tier {
		case model.TierRegulatory:
			report.HardViolationCount += len(violations)
		case model.TierSoft:
			penalty := r.constraint.Weight * float64(r.constraint.Priority) * float64(len(violations))
			report.SoftPenalty += penalty
			summary.SoftPenalty += penalty
		}
		report.ByTier[r.constraint.Tier] = summary
		report.Violations = append(report.Violations, violations...)
	}
	return report
}

// Names returns the names of every enabled constraint, sorted, optionally
// restricted to tiers (all tiers if empty). Used by analyzers that need to
// reason about constraints individually rather than through Evaluate's
// aggregate Report.
func (c *Catalog) Names(tiers ...model.Tier) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, r := range c.byName {
		if !r.enabled {
			continue
		}
		if len(tiers) > 0 && !tierIncluded(r.constraint.Tier, tiers) {
			continue
		}
		out = append(out, r.constraint.Name)
	}
	sort.Strings(out)
	return out
}

// EvaluateOne runs a single named constraint's predicate, regardless of
// its enabled/disabled state, returning its raw violations.
func (c *Catalog) EvaluateOne(name string, assignments []model.Assignment, ctx *model.SchedulingContext) ([]model.Violation, error) {
	c.mu.RLock()
	r, ok := c.byName[name]
	c.mu.RUnlock()
	if !ok {
		return nil, errs.Wrap(errs.ErrConfig, "constraint", name, "reason", "not registered")
	}
	return r.constraint.Violates(assignments, ctx), nil
}

func tierIncluded(t model.Tier, tiers []model.Tier) bool {
	for _, want := range tiers {
		if t == want {
			return true
		}
	}
	return false
}

// registrationError is returned by RegisterBuiltins if more than one
// built-in constraint shares a name; surfaced via fmt.Errorf rather than
// errs.Wrap since it indicates a programming error in this package, not a
// caller-supplied misconfiguration.
func registrationError(name string, cause error) error {
	return fmt.Errorf("constraints: registering built-in %q: %w", name, cause)
}
