package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/clickoflow/clickoflow/internal/model"
)

func TestPlanBookPrefersActivePlan(t *testing.T) {
	june := month(2025, time.June)
	settings := scenarioSettings()
	settings.MonthlyTargets = map[string]model.Money{june.String(): aed("20000")}

	plans := []model.MonthlyPlan{
		{ID: "old", Month: june, IsActive: true, UpdatedAt: date(2025, time.January, 1),
			Overhead: []model.ExpenseRecord{{Name: "stale", Amount: aed("1"), IsActive: true}}},
		{ID: "new", Month: june, IsActive: true, UpdatedAt: date(2025, time.February, 1),
			Overhead: []model.ExpenseRecord{{Name: "fresh", Amount: aed("2"), IsActive: true}}},
		{ID: "off", Month: month(2025, time.July), IsActive: false},
	}
	book := NewPlanBook(settings, plans)

	p, err := book.PlanFor(june)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "new" {
		t.Errorf("plan = %q, want most recently updated", p.ID)
	}
	assertDec(t, "inherited target", p.Target.Amount, "20000")

	if book.HasPlan(month(2025, time.July)) {
		t.Error("inactive plan must be ignored")
	}
	july, err := book.PlanFor(month(2025, time.July))
	if err != nil {
		t.Fatal(err)
	}
	if len(july.Overhead) != 1 || july.Overhead[0].Name != "Designer" {
		t.Errorf("July should fall back to settings overhead, got %+v", july.Overhead)
	}
	if !july.Target.IsZero() {
		t.Errorf("July target = %s, want unset", july.Target.Amount)
	}
}

func TestPlanBookWithoutSettings(t *testing.T) {
	june := month(2025, time.June)
	book := NewPlanBook(nil, []model.MonthlyPlan{{ID: "p", Month: june, IsActive: true}})

	if _, err := book.PlanFor(june); err != nil {
		t.Errorf("PlanFor(plan month) err = %v, want nil", err)
	}
	if _, err := book.PlanFor(month(2025, time.July)); !errors.Is(err, ErrSettingsNotFound) {
		t.Errorf("PlanFor(other month) err = %v, want ErrSettingsNotFound", err)
	}
}

func TestPlanLookupFunc(t *testing.T) {
	called := 0
	lookup := PlanLookupFunc(func(m model.Month) (*model.MonthlyPlan, error) {
		called++
		return &model.MonthlyPlan{Month: m}, nil
	})
	e := newTestEngine(t)
	if _, err := e.GenerateForecast(nil, lookup, month(2025, time.January), 4); err != nil {
		t.Fatal(err)
	}
	if called != 4 {
		t.Errorf("lookup called %d times, want 4", called)
	}
}
