package forecast

import (
	"fmt"

	"github.com/clickoflow/clickoflow/internal/model"
)

// PlanLookup resolves the plan that governs a month.
type PlanLookup interface {
	PlanFor(m model.Month) (*model.MonthlyPlan, error)
}

// PlanLookupFunc adapts a function to PlanLookup.
type PlanLookupFunc func(m model.Month) (*model.MonthlyPlan, error)

// PlanFor implements PlanLookup.
func (f PlanLookupFunc) PlanFor(m model.Month) (*model.MonthlyPlan, error) { return f(m) }

// PlanBook resolves months against an owner's active monthly plans, falling
// back to the owner-wide settings.
type PlanBook struct {
	settings *model.Settings
	plans    map[model.Month]model.MonthlyPlan
}

// NewPlanBook indexes the active plans. Inactive plans are ignored; when
// two active plans share a month the most recently updated wins.
func NewPlanBook(settings *model.Settings, plans []model.MonthlyPlan) *PlanBook {
	b := &PlanBook{settings: settings, plans: make(map[model.Month]model.MonthlyPlan)}
	for _, p := range plans {
		if !p.IsActive || p.Month.IsZero() {
			continue
		}
		if prev, ok := b.plans[p.Month]; ok && prev.UpdatedAt.After(p.UpdatedAt) {
			continue
		}
		b.plans[p.Month] = p
	}
	return b
}

// Settings returns the owner-wide settings, or nil.
func (b *PlanBook) Settings() *model.Settings { return b.settings }

// HasPlan reports whether an active monthly plan exists for m.
func (b *PlanBook) HasPlan(m model.Month) bool {
	_, ok := b.plans[m]
	return ok
}

// PlanFor returns the active plan for m. Without one, a plan is derived
// from the settings expense lists and the settings target for m. A plan
// with no target of its own inherits the settings target.
func (b *PlanBook) PlanFor(m model.Month) (*model.MonthlyPlan, error) {
	if p, ok := b.plans[m]; ok {
		if p.Target.IsZero() && b.settings != nil {
			if t, ok := b.settings.TargetFor(m); ok {
				p.Target = t
			}
		}
		return &p, nil
	}
	if b.settings == nil {
		return nil, fmt.Errorf("%w: no plan for %s", ErrSettingsNotFound, m)
	}
	s := b.settings
	p := &model.MonthlyPlan{
		Owner:           s.Owner,
		Month:           m,
		Overhead:        s.Overhead,
		GeneralExpenses: s.GeneralExpenses,
		BreakEvenTarget: s.BreakEvenTarget,
		IsActive:        true,
		UpdatedAt:       s.UpdatedAt,
	}
	if t, ok := s.TargetFor(m); ok {
		p.Target = t
	}
	return p, nil
}
