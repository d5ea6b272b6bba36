package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/clickoflow/clickoflow/internal/model"
)

// completing returns a project worth amount that completes in m.
func completing(id string, m model.Month, amount string) model.Project {
	return model.Project{
		ID:                 id,
		TotalAmount:        aed(amount),
		ExpectedCompletion: m.Start().AddDate(0, 0, 14),
		Status:             model.StatusInProgress,
	}
}

func overheadBook(amount string) *PlanBook {
	return NewPlanBook(&model.Settings{
		Owner: "owner-1",
		Overhead: []model.ExpenseRecord{
			{Name: "Team", Amount: aed(amount), IsActive: true},
		},
	}, nil)
}

func TestBreakEvenDetection(t *testing.T) {
	e := newTestEngine(t)
	start := month(2025, time.January)

	tests := []struct {
		name       string
		month3     string
		profitable int
	}{
		{"exact zero profit", "1000", 2},
		{"positive profit", "1100", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects := []model.Project{
				completing("m3", start.AddMonths(3), tt.month3),
				completing("m4", start.AddMonths(4), "5000"),
				completing("m5", start.AddMonths(5), "1500"),
			}
			rf, err := e.GenerateForecast(projects, overheadBook("1000"), start, 6)
			if err != nil {
				t.Fatal(err)
			}
			s := rf.Summary
			if s.BreakEvenMonth == nil {
				t.Fatal("BreakEvenMonth is nil")
			}
			if *s.BreakEvenMonth != start.AddMonths(3) {
				t.Errorf("BreakEvenMonth = %s, want %s", s.BreakEvenMonth, start.AddMonths(3))
			}
			if s.ProfitableMonths != tt.profitable {
				t.Errorf("ProfitableMonths = %d, want %d", s.ProfitableMonths, tt.profitable)
			}
		})
	}
}

func TestNoBreakEven(t *testing.T) {
	e := newTestEngine(t)
	rf, err := e.GenerateForecast(nil, overheadBook("1000"), month(2025, time.January), 3)
	if err != nil {
		t.Fatal(err)
	}
	if rf.Summary.BreakEvenMonth != nil {
		t.Errorf("BreakEvenMonth = %s, want nil", rf.Summary.BreakEvenMonth)
	}
	if rf.Summary.ProfitableMonths != 0 {
		t.Errorf("ProfitableMonths = %d, want 0", rf.Summary.ProfitableMonths)
	}
	assertDec(t, "averageProfit", rf.Summary.AverageProfit, "-1000")
}

func TestGenerateForecastTotals(t *testing.T) {
	e := newTestEngine(t)
	start := month(2025, time.May)
	projects := []model.Project{scenarioA()}

	rf, err := e.GenerateForecast(projects, NewPlanBook(scenarioSettings(), nil), start, DefaultHorizon)
	if err != nil {
		t.Fatal(err)
	}
	if len(rf.Months) != DefaultHorizon {
		t.Fatalf("months = %d, want %d", len(rf.Months), DefaultHorizon)
	}
	if rf.Months[0].Month != start || rf.Months[23].Month != month(2027, time.April) {
		t.Errorf("window = %s..%s, want May 2025..April 2027", rf.Months[0].Month, rf.Months[23].Month)
	}

	s := rf.Summary
	assertDec(t, "totalRevenue", s.TotalRevenue, "10000")
	assertDec(t, "totalExpenses", s.TotalExpenses, "48000")
	assertDec(t, "totalProfit", s.TotalProfit, "-38000")
	assertDec(t, "averageExpenses", s.AverageExpenses, "2000")
	if s.ProfitableMonths != 1 {
		t.Errorf("ProfitableMonths = %d, want 1", s.ProfitableMonths)
	}
	if s.BreakEvenMonth == nil || *s.BreakEvenMonth != month(2025, time.June) {
		t.Errorf("BreakEvenMonth = %v, want June 2025", s.BreakEvenMonth)
	}
}

func TestGenerateForecastErrors(t *testing.T) {
	e := newTestEngine(t)
	start := month(2025, time.January)

	if _, err := e.GenerateForecast(nil, overheadBook("1"), start, 0); !errors.Is(err, ErrInvalidHorizon) {
		t.Errorf("horizon 0: err = %v, want ErrInvalidHorizon", err)
	}
	if _, err := e.GenerateForecast(nil, NewPlanBook(nil, nil), start, 3); !errors.Is(err, ErrSettingsNotFound) {
		t.Errorf("no settings: err = %v, want ErrSettingsNotFound", err)
	}
	if _, err := e.GenerateForecast(nil, nil, start, 3); !errors.Is(err, ErrSettingsNotFound) {
		t.Errorf("nil lookup: err = %v, want ErrSettingsNotFound", err)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Months != 0 || s.BreakEvenMonth != nil || !s.AverageRevenue.IsZero() {
		t.Errorf("Summarize(nil) = %+v, want zero summary", s)
	}
}
