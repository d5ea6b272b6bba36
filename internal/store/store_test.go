package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/model"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	r, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func aed(s string) model.Money {
	return model.NewMoney(decimal.RequireFromString(s), "AED")
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenPostgresRequiresURL(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), ""); err == nil {
		t.Fatal("expected error without database url")
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM t WHERE a = ?", "SELECT * FROM t WHERE a = $1"},
		{"INSERT INTO t VALUES (?, ?, ?)", "INSERT INTO t VALUES ($1, $2, $3)"},
	}
	for _, tt := range tests {
		if got := rebind(tt.in); got != tt.want {
			t.Errorf("rebind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)

	p := model.Project{
		Owner:              "dana",
		ClientName:         "Acme",
		Name:               "Brand refresh",
		TotalAmount:        aed("15000"),
		ExpectedStart:      day(2025, time.May, 1),
		ExpectedCompletion: day(2025, time.June, 20),
		Status:             model.StatusInProgress,
		Payments: []model.Payment{
			{Amount: aed("3000").WithBase(decimal.RequireFromString("3000")), Date: day(2025, time.May, 2), Type: model.PaymentDeposit},
			{Amount: aed("1500"), Date: day(2025, time.May, 20), Type: model.PaymentMilestone, Description: "wireframes"},
		},
		Milestones: []model.Milestone{
			{Name: "Design", Amount: aed("5000"), DueDate: day(2025, time.June, 1), Completed: true},
			{Name: "Launch", Amount: aed("7000"), DueDate: day(2025, time.June, 20)},
		},
	}
	saved, err := r.SaveProject(ctx, p)
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated project id")
	}
	if !saved.DepositPaid.Amount.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("cached deposit = %s, want 3000", saved.DepositPaid.Amount)
	}

	got, err := r.Projects(ctx, "dana")
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(projects) = %d, want 1", len(got))
	}
	g := got[0]
	if g.ClientName != "Acme" || g.Status != model.StatusInProgress {
		t.Errorf("project = %+v", g)
	}
	if !g.ExpectedCompletion.Equal(p.ExpectedCompletion) {
		t.Errorf("completion = %v, want %v", g.ExpectedCompletion, p.ExpectedCompletion)
	}
	if len(g.Payments) != 2 || len(g.Milestones) != 2 {
		t.Fatalf("payments=%d milestones=%d, want 2 and 2", len(g.Payments), len(g.Milestones))
	}
	if !g.Payments[0].Amount.HasBase() || g.Payments[1].Amount.HasBase() {
		t.Error("in_base presence not preserved")
	}
	if g.Milestones[0].Name != "Design" || !g.Milestones[0].Completed || g.Milestones[1].Completed {
		t.Errorf("milestones = %+v", g.Milestones)
	}
	if !g.DepositDate.Equal(day(2025, time.May, 2)) {
		t.Errorf("deposit date = %v", g.DepositDate)
	}

	if others, _ := r.Projects(ctx, "someone-else"); len(others) != 0 {
		t.Errorf("other owner sees %d projects", len(others))
	}
}

func TestSaveProjectReplacesChildren(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)

	p, err := r.SaveProject(ctx, model.Project{
		Owner: "dana", ClientName: "Acme", TotalAmount: aed("1000"),
		Payments: []model.Payment{{Amount: aed("100"), Date: day(2025, time.January, 5), Type: model.PaymentDeposit}},
	})
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	p.Payments = nil
	p.Status = model.StatusCompleted
	if _, err := r.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject update: %v", err)
	}
	got, err := r.Projects(ctx, "dana")
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(got) != 1 || len(got[0].Payments) != 0 || got[0].Status != model.StatusCompleted {
		t.Fatalf("got %+v", got)
	}
}

func TestAddPaymentRefreshesDeposit(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)

	p, err := r.SaveProject(ctx, model.Project{Owner: "dana", ClientName: "Acme", TotalAmount: aed("9000")})
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if _, err := r.AddPayment(ctx, "dana", p.ID, model.Payment{Amount: aed("1000"), Date: day(2025, time.March, 1), Type: model.PaymentDeposit}); err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	updated, err := r.AddPayment(ctx, "dana", p.ID, model.Payment{Amount: aed("2000"), Date: day(2025, time.April, 1), Type: model.PaymentDeposit})
	if err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	if !updated.DepositPaid.Amount.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("deposit = %s, want 3000", updated.DepositPaid.Amount)
	}
	if !updated.DepositDate.Equal(day(2025, time.April, 1)) {
		t.Errorf("deposit date = %v, want April 1", updated.DepositDate)
	}

	_, err = r.AddPayment(ctx, "dana", "missing", model.Payment{Amount: aed("1")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("AddPayment missing project err = %v, want ErrNotFound", err)
	}
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)

	p, err := r.SaveProject(ctx, model.Project{Owner: "dana", ClientName: "Acme", TotalAmount: aed("10")})
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if err := r.DeleteProject(ctx, "dana", p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if err := r.DeleteProject(ctx, "dana", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)

	if _, err := r.Settings(ctx, "dana"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Settings before save err = %v, want ErrNotFound", err)
	}

	s := model.Settings{
		Owner:           "dana",
		BaseCurrency:    "AED",
		BreakEvenTarget: aed("8000"),
		Overhead: []model.ExpenseRecord{
			{Name: "Designer", Amount: aed("6000"), IsActive: true, Team: model.TeamService},
			{Name: "PM", Amount: aed("4000"), IsActive: true, Team: model.TeamManagement},
		},
		GeneralExpenses: []model.ExpenseRecord{
			{Name: "Insurance", Amount: aed("1200"), IsActive: true, Frequency: model.FrequencyYearly, StartDate: day(2025, time.January, 1)},
		},
		MonthlyTargets: map[string]model.Money{"June 2025": aed("20000")},
	}
	if err := r.SaveSettings(ctx, s); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err := r.Settings(ctx, "dana")
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if got.BaseCurrency != "AED" || !got.BreakEvenTarget.Amount.Equal(decimal.RequireFromString("8000")) {
		t.Errorf("settings = %+v", got)
	}
	if len(got.Overhead) != 2 || got.Overhead[0].Name != "Designer" || got.Overhead[1].Team != model.TeamManagement {
		t.Errorf("overhead = %+v", got.Overhead)
	}
	if len(got.GeneralExpenses) != 1 || got.GeneralExpenses[0].Frequency != model.FrequencyYearly {
		t.Errorf("general = %+v", got.GeneralExpenses)
	}
	target, ok := got.TargetFor(model.NewMonth(2025, time.June))
	if !ok || !target.Amount.Equal(decimal.RequireFromString("20000")) {
		t.Errorf("June target = %v, %v", target, ok)
	}

	s.Overhead = s.Overhead[:1]
	s.MonthlyTargets = nil
	if err := r.SaveSettings(ctx, s); err != nil {
		t.Fatalf("SaveSettings again: %v", err)
	}
	got, err = r.Settings(ctx, "dana")
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if len(got.Overhead) != 1 || len(got.MonthlyTargets) != 0 {
		t.Errorf("settings not replaced: overhead=%d targets=%d", len(got.Overhead), len(got.MonthlyTargets))
	}
}

func TestSavePlanUpsertsByMonth(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)
	june := model.NewMonth(2025, time.June)

	first, err := r.SavePlan(ctx, model.MonthlyPlan{
		Owner:          "dana",
		Month:          june,
		RevenueStreams: []model.RevenueStream{{Name: "Retainer", Amount: aed("4000")}},
		Target:         aed("20000"),
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	second, err := r.SavePlan(ctx, model.MonthlyPlan{
		Owner:    "dana",
		Month:    june,
		Overhead: []model.ExpenseRecord{{Name: "Designer", Amount: aed("6000"), IsActive: true}},
		Target:   aed("25000"),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("SavePlan again: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("plan id changed on upsert: %s -> %s", first.ID, second.ID)
	}

	plans, err := r.Plans(ctx, "dana", false)
	if err != nil {
		t.Fatalf("Plans: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("len(plans) = %d, want 1", len(plans))
	}
	p := plans[0]
	if p.Month != june || !p.Target.Amount.Equal(decimal.RequireFromString("25000")) {
		t.Errorf("plan = %+v", p)
	}
	if len(p.RevenueStreams) != 0 || len(p.Overhead) != 1 {
		t.Errorf("children not replaced: streams=%d overhead=%d", len(p.RevenueStreams), len(p.Overhead))
	}
}

func TestDeactivatePlan(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)
	july := model.NewMonth(2025, time.July)

	if err := r.DeactivatePlan(ctx, "dana", july); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeactivatePlan missing err = %v, want ErrNotFound", err)
	}
	if _, err := r.SavePlan(ctx, model.MonthlyPlan{Owner: "dana", Month: july, IsActive: true}); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if err := r.DeactivatePlan(ctx, "dana", july); err != nil {
		t.Fatalf("DeactivatePlan: %v", err)
	}
	active, err := r.Plans(ctx, "dana", false)
	if err != nil {
		t.Fatalf("Plans: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active plans = %d, want 0", len(active))
	}
	all, err := r.Plans(ctx, "dana", true)
	if err != nil {
		t.Fatalf("Plans(all): %v", err)
	}
	if len(all) != 1 || all[0].IsActive {
		t.Errorf("all plans = %+v", all)
	}
}

func TestSavePlanRejectsZeroMonth(t *testing.T) {
	r := openTestRepo(t)
	_, err := r.SavePlan(context.Background(), model.MonthlyPlan{Owner: "dana"})
	if !errors.Is(err, model.ErrInvalidMonthFormat) {
		t.Errorf("err = %v, want ErrInvalidMonthFormat", err)
	}
}

func TestLoadLedgerWithoutSettings(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)
	if _, err := r.SaveProject(ctx, model.Project{Owner: "dana", ClientName: "Acme", TotalAmount: aed("10")}); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	l, err := r.LoadLedger(ctx, "dana")
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if l.Settings != nil {
		t.Errorf("Settings = %+v, want nil", l.Settings)
	}
	if len(l.Projects) != 1 {
		t.Errorf("projects = %d, want 1", len(l.Projects))
	}
}

func TestSaveProjectNormalizesStatus(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)

	saved, err := r.SaveProject(ctx, model.Project{
		Owner:              "dana",
		ClientName:         "Acme",
		TotalAmount:        aed("8000"),
		ExpectedCompletion: day(2025, time.June, 20),
		Status:             "cancelled",
		Payments: []model.Payment{
			{Amount: aed("1000"), Date: day(2025, time.May, 2), Type: "Deposit"},
		},
	})
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if saved.Status != model.StatusCancelled {
		t.Errorf("saved status = %q, want %q", saved.Status, model.StatusCancelled)
	}

	got, err := r.Projects(ctx, "dana")
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d projects, want 1", len(got))
	}
	if !got[0].IsCancelled() {
		t.Errorf("status %q not treated as cancelled", got[0].Status)
	}
	if got[0].Payments[0].Type != model.PaymentDeposit {
		t.Errorf("payment type = %q, want deposit", got[0].Payments[0].Type)
	}
}

func TestSaveProjectRejectsUnknownStatus(t *testing.T) {
	r := openTestRepo(t)
	_, err := r.SaveProject(context.Background(), model.Project{
		Owner:       "dana",
		TotalAmount: aed("100"),
		Status:      "Abandoned",
	})
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestSaveProjectRejectsUnknownPaymentType(t *testing.T) {
	r := openTestRepo(t)
	_, err := r.SaveProject(context.Background(), model.Project{
		Owner:       "dana",
		TotalAmount: aed("100"),
		Payments:    []model.Payment{{Amount: aed("50"), Date: day(2025, time.May, 2), Type: "refund"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown payment type")
	}
}

func TestProjectsRejectCorruptCells(t *testing.T) {
	tests := []struct {
		name   string
		update string
	}{
		{"completion date", "UPDATE projects SET expected_completion = '2025-06-20'"},
		{"deposit date", "UPDATE projects SET deposit_date = 'yesterday'"},
		{"status", "UPDATE projects SET status = 'Abandoned'"},
		{"payment date", "UPDATE payments SET paid_at = '02/05/2025'"},
		{"payment type", "UPDATE payments SET type = 'refund'"},
		{"milestone due date", "UPDATE milestones SET due_date = 'soon'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			r := openTestRepo(t)
			_, err := r.SaveProject(ctx, model.Project{
				Owner:              "dana",
				TotalAmount:        aed("15000"),
				ExpectedCompletion: day(2025, time.June, 20),
				Status:             model.StatusInProgress,
				Payments:           []model.Payment{{Amount: aed("3000"), Date: day(2025, time.May, 2), Type: model.PaymentDeposit}},
				Milestones:         []model.Milestone{{Name: "Design", Amount: aed("5000"), DueDate: day(2025, time.June, 1)}},
			})
			if err != nil {
				t.Fatalf("SaveProject: %v", err)
			}
			if _, err := r.db.exec(ctx, tt.update); err != nil {
				t.Fatalf("corrupting cell: %v", err)
			}
			if _, err := r.Projects(ctx, "dana"); err == nil {
				t.Fatal("expected error loading corrupt project")
			}
		})
	}
}

func TestPlansRejectCorruptTimestamp(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t)
	if _, err := r.SavePlan(ctx, model.MonthlyPlan{
		Owner:    "dana",
		Month:    model.NewMonth(2025, time.June),
		Target:   aed("20000"),
		IsActive: true,
	}); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if _, err := r.db.exec(ctx, "UPDATE plans SET updated_at = 'last week'"); err != nil {
		t.Fatalf("corrupting cell: %v", err)
	}
	if _, err := r.Plans(ctx, "dana", true); err == nil {
		t.Fatal("expected error loading corrupt plan")
	}
}
