package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/currency"
	"github.com/clickoflow/clickoflow/internal/model"
)

const sample = `
owner: dana
base_currency: AED
settings:
  break_even: 8000
  targets:
    June 2025: 20000
    2025-07: "22,000"
  overhead:
    - name: Designer
      amount: 6000
      team: service
  expenses:
    - name: Insurance
      amount: 1200
      frequency: annually
      start: 2025-01-01
projects:
  - client: Acme
    name: Brand refresh
    total: 15000
    status: in progress
    start: 2025-05-01
    completion: 2025-06-20
    payments:
      - amount: 3000
        date: 2025-05-02
        type: deposit
      - amount: 100 USD
        date: 2025-05-20
        type: milestone
        note: wireframes
    milestones:
      - name: Design
        amount: 5000
        due: 2025-06-01
        completed: true
plans:
  - month: June 2025
    target: 25000
    revenue:
      - name: Retainer
        amount: USD 1000
  - month: Jul 2025
    inactive: true
`

func newRates(t *testing.T) *currency.Normalizer {
	t.Helper()
	n, err := currency.NewNormalizer(currency.DefaultRates())
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

func TestParseSample(t *testing.T) {
	l, err := Parse([]byte(sample), newRates(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l.Owner != "dana" {
		t.Errorf("owner = %q", l.Owner)
	}

	s := l.Settings
	if s == nil {
		t.Fatal("settings missing")
	}
	if len(s.Overhead) != 1 || s.Overhead[0].Team != model.TeamService || !s.Overhead[0].IsActive {
		t.Errorf("overhead = %+v", s.Overhead)
	}
	if len(s.GeneralExpenses) != 1 || s.GeneralExpenses[0].Frequency != model.FrequencyYearly {
		t.Errorf("general = %+v", s.GeneralExpenses)
	}
	july, ok := s.TargetFor(model.NewMonth(2025, time.July))
	if !ok || !july.Amount.Equal(decimal.NewFromInt(22000)) {
		t.Errorf("July target = %v, %v", july, ok)
	}

	if len(l.Projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(l.Projects))
	}
	p := l.Projects[0]
	if p.ID == "" {
		t.Error("project id not generated")
	}
	if p.Status != model.StatusInProgress {
		t.Errorf("status = %q", p.Status)
	}
	if len(p.Payments) != 2 || p.Payments[1].Type != model.PaymentMilestone {
		t.Fatalf("payments = %+v", p.Payments)
	}
	usd := p.Payments[1].Amount
	if usd.Currency != "USD" || !usd.HasBase() {
		t.Fatalf("usd payment = %+v", usd)
	}
	if got := usd.InBase.Decimal.InexactFloat64(); got < 370.37 || got > 370.38 {
		t.Errorf("100 USD in base = %v, want ~370.37", got)
	}
	if len(p.Milestones) != 1 || !p.Milestones[0].Completed {
		t.Errorf("milestones = %+v", p.Milestones)
	}

	if len(l.Plans) != 2 {
		t.Fatalf("plans = %d, want 2", len(l.Plans))
	}
	if l.Plans[0].Month != model.NewMonth(2025, time.June) || !l.Plans[0].IsActive {
		t.Errorf("plan 0 = %+v", l.Plans[0])
	}
	if l.Plans[0].RevenueStreams[0].Amount.Currency != "USD" {
		t.Errorf("revenue stream = %+v", l.Plans[0].RevenueStreams[0])
	}
	if l.Plans[1].IsActive {
		t.Error("plan 1 should be inactive")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no owner", "projects: []", "owner is required"},
		{"unknown field", "owner: a\nbogus: 1", "parsing ledger"},
		{"bad month", "owner: a\nplans:\n  - month: Smarch 2025", "plan 1"},
		{"bad frequency", "owner: a\nsettings:\n  expenses:\n    - name: x\n      amount: 1\n      frequency: weekly", "invalid frequency"},
		{"bad status", "owner: a\nprojects:\n  - client: c\n    status: exploded", "project 1 (c)"},
		{"missing client", "owner: a\nprojects:\n  - total: 1", "client is required"},
		{"bad amount", "owner: a\nprojects:\n  - client: c\n    total: lots", "bad amount"},
		{"negative", "owner: a\nprojects:\n  - client: c\n    total: -5", "negative amount"},
		{"bad date", "owner: a\nprojects:\n  - client: c\n    start: 05/01/2025", "bad date"},
		{"payment without date", "owner: a\nprojects:\n  - client: c\n    payments:\n      - amount: 1", "date is required"},
		{"end before start", "owner: a\nsettings:\n  overhead:\n    - name: x\n      start: 2025-05-01\n      end: 2025-01-01", "end is before start"},
	}
	rates := newRates(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), rates)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestParseUnknownCurrency(t *testing.T) {
	doc := "owner: a\nprojects:\n  - client: c\n    total: 10 XYZ"
	_, err := Parse([]byte(doc), newRates(t))
	if !errors.Is(err, currency.ErrInvalidCurrency) {
		t.Errorf("err = %v, want ErrInvalidCurrency", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path, newRates(t)); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.yaml"), newRates(t)); err == nil {
		t.Error("expected error for missing file")
	}
}

type recordingWriter struct {
	settings int
	projects []model.Project
	plans    []model.MonthlyPlan
	failPlan bool
}

func (w *recordingWriter) SaveSettings(context.Context, model.Settings) error {
	w.settings++
	return nil
}

func (w *recordingWriter) SaveProject(_ context.Context, p model.Project) (model.Project, error) {
	w.projects = append(w.projects, p)
	return p, nil
}

func (w *recordingWriter) SavePlan(_ context.Context, p model.MonthlyPlan) (model.MonthlyPlan, error) {
	if w.failPlan {
		return p, errors.New("disk full")
	}
	w.plans = append(w.plans, p)
	return p, nil
}

func TestApply(t *testing.T) {
	l, err := Parse([]byte(sample), newRates(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	w := &recordingWriter{}
	res, err := Apply(context.Background(), w, l)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Settings || res.Projects != 1 || res.Plans != 2 {
		t.Errorf("result = %+v", res)
	}
	if w.settings != 1 || len(w.projects) != 1 || len(w.plans) != 2 {
		t.Errorf("writer saw settings=%d projects=%d plans=%d", w.settings, len(w.projects), len(w.plans))
	}

	res, err = Apply(context.Background(), &recordingWriter{failPlan: true}, l)
	if err == nil {
		t.Fatal("expected error from failing writer")
	}
	if res.Projects != 1 || res.Plans != 0 {
		t.Errorf("partial result = %+v", res)
	}
}
