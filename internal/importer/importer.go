// Package importer loads a YAML ledger file into model records and writes
// them to a store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/clickoflow/clickoflow/internal/currency"
	"github.com/clickoflow/clickoflow/internal/model"
)

const dateLayout = "2006-01-02"

// File is the on-disk ledger layout.
type File struct {
	Owner        string       `yaml:"owner"`
	BaseCurrency string       `yaml:"base_currency"`
	Settings     *settingsDoc `yaml:"settings"`
	Projects     []projectDoc `yaml:"projects"`
	Plans        []planDoc    `yaml:"plans"`
}

type settingsDoc struct {
	BreakEven string            `yaml:"break_even"`
	Targets   map[string]string `yaml:"targets"`
	Overhead  []expenseDoc      `yaml:"overhead"`
	Expenses  []expenseDoc      `yaml:"expenses"`
}

type expenseDoc struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Amount    string `yaml:"amount"`
	Active    *bool  `yaml:"active"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Frequency string `yaml:"frequency"`
	Team      string `yaml:"team"`
}

type projectDoc struct {
	ID          string         `yaml:"id"`
	Client      string         `yaml:"client"`
	Name        string         `yaml:"name"`
	Total       string         `yaml:"total"`
	Status      string         `yaml:"status"`
	Start       string         `yaml:"start"`
	Completion  string         `yaml:"completion"`
	Deposit     string         `yaml:"deposit"`
	DepositDate string         `yaml:"deposit_date"`
	Payments    []paymentDoc   `yaml:"payments"`
	Milestones  []milestoneDoc `yaml:"milestones"`
}

type paymentDoc struct {
	ID     string `yaml:"id"`
	Amount string `yaml:"amount"`
	Date   string `yaml:"date"`
	Type   string `yaml:"type"`
	Note   string `yaml:"note"`
}

type milestoneDoc struct {
	Name      string `yaml:"name"`
	Amount    string `yaml:"amount"`
	Due       string `yaml:"due"`
	Completed bool   `yaml:"completed"`
}

type planDoc struct {
	Month     string       `yaml:"month"`
	Target    string       `yaml:"target"`
	BreakEven string       `yaml:"break_even"`
	Revenue   []streamDoc  `yaml:"revenue"`
	Overhead  []expenseDoc `yaml:"overhead"`
	Expenses  []expenseDoc `yaml:"expenses"`
	Inactive  bool         `yaml:"inactive"`
}

type streamDoc struct {
	Name   string `yaml:"name"`
	Amount string `yaml:"amount"`
}

// Ledger is a decoded, validated ledger file.
type Ledger struct {
	Owner    string
	Settings *model.Settings
	Projects []model.Project
	Plans    []model.MonthlyPlan
}

// ReadFile decodes the ledger at path.
func ReadFile(path string, rates *currency.Normalizer) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return Parse(data, rates)
}

// Parse decodes and validates a ledger document. Every amount gets its
// base-currency value cached at the current rates.
func Parse(data []byte, rates *currency.Normalizer) (*Ledger, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing ledger: %w", err)
	}
	if strings.TrimSpace(f.Owner) == "" {
		return nil, errors.New("ledger: owner is required")
	}

	d := decoder{rates: rates, base: rates.Base()}
	if f.BaseCurrency != "" {
		if !rates.Supports(f.BaseCurrency) {
			return nil, fmt.Errorf("ledger base_currency: %w: %q", currency.ErrInvalidCurrency, f.BaseCurrency)
		}
		d.base = strings.ToUpper(f.BaseCurrency)
	}

	l := &Ledger{Owner: f.Owner}
	if f.Settings != nil {
		s, err := d.settings(f.Owner, *f.Settings)
		if err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		l.Settings = s
	}
	for i, pd := range f.Projects {
		p, err := d.project(f.Owner, pd)
		if err != nil {
			return nil, fmt.Errorf("project %d (%s): %w", i+1, pd.Client, err)
		}
		l.Projects = append(l.Projects, p)
	}
	for i, pd := range f.Plans {
		p, err := d.plan(f.Owner, pd)
		if err != nil {
			return nil, fmt.Errorf("plan %d (%s): %w", i+1, pd.Month, err)
		}
		l.Plans = append(l.Plans, p)
	}
	return l, nil
}

type decoder struct {
	rates *currency.Normalizer
	base  string
}

// money parses "1500", "1500 USD" or "USD 1500". A bare number is in the
// ledger's base currency.
func (d decoder) money(s string) (model.Money, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", ""))
	var amount, code string
	switch len(fields) {
	case 0:
		return model.NewMoney(decimal.Zero, d.base).WithBase(decimal.Zero), nil
	case 1:
		amount, code = fields[0], d.base
	case 2:
		amount, code = fields[0], fields[1]
		if _, err := decimal.NewFromString(amount); err != nil {
			amount, code = fields[1], fields[0]
		}
	default:
		return model.Money{}, fmt.Errorf("bad amount %q", s)
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Money{}, fmt.Errorf("bad amount %q", s)
	}
	if v.IsNegative() {
		return model.Money{}, fmt.Errorf("negative amount %q", s)
	}
	return d.rates.Normalize(model.NewMoney(v, strings.ToUpper(code)))
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q (want YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

func (d decoder) settings(owner string, sd settingsDoc) (*model.Settings, error) {
	s := &model.Settings{Owner: owner, BaseCurrency: d.base}
	var err error
	if s.BreakEvenTarget, err = d.money(sd.BreakEven); err != nil {
		return nil, fmt.Errorf("break_even: %w", err)
	}
	if len(sd.Targets) > 0 {
		s.MonthlyTargets = make(map[string]model.Money, len(sd.Targets))
		for label, amt := range sd.Targets {
			m, err := model.ParseMonth(label)
			if err != nil {
				return nil, fmt.Errorf("target %q: %w", label, err)
			}
			if s.MonthlyTargets[m.String()], err = d.money(amt); err != nil {
				return nil, fmt.Errorf("target %s: %w", m, err)
			}
		}
	}
	if s.Overhead, err = d.expenses(sd.Overhead, true); err != nil {
		return nil, err
	}
	if s.GeneralExpenses, err = d.expenses(sd.Expenses, false); err != nil {
		return nil, err
	}
	return s, nil
}

func (d decoder) expenses(docs []expenseDoc, overhead bool) ([]model.ExpenseRecord, error) {
	var out []model.ExpenseRecord
	for _, ed := range docs {
		e, err := d.expense(ed, overhead)
		if err != nil {
			return nil, fmt.Errorf("expense %q: %w", ed.Name, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (d decoder) expense(ed expenseDoc, overhead bool) (model.ExpenseRecord, error) {
	e := model.ExpenseRecord{ID: ed.ID, Name: ed.Name, IsActive: true}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if strings.TrimSpace(e.Name) == "" {
		return e, errors.New("name is required")
	}
	if ed.Active != nil {
		e.IsActive = *ed.Active
	}
	var err error
	if e.Amount, err = d.money(ed.Amount); err != nil {
		return e, err
	}
	if e.StartDate, err = parseDate(ed.Start); err != nil {
		return e, fmt.Errorf("start: %w", err)
	}
	if e.EndDate, err = parseDate(ed.End); err != nil {
		return e, fmt.Errorf("end: %w", err)
	}
	if !e.EndDate.IsZero() && e.EndDate.Before(e.StartDate) {
		return e, errors.New("end is before start")
	}
	if overhead {
		if e.Team, err = model.ParseTeam(ed.Team); err != nil {
			return e, err
		}
		e.Frequency = model.FrequencyMonthly
		return e, nil
	}
	if e.Frequency, err = model.ParseFrequency(ed.Frequency); err != nil {
		return e, err
	}
	return e, nil
}

func (d decoder) project(owner string, pd projectDoc) (model.Project, error) {
	p := model.Project{ID: pd.ID, Owner: owner, ClientName: pd.Client, Name: pd.Name}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if strings.TrimSpace(p.ClientName) == "" {
		return p, errors.New("client is required")
	}
	var err error
	if p.Status, err = model.ParseProjectStatus(pd.Status); err != nil {
		return p, err
	}
	if p.TotalAmount, err = d.money(pd.Total); err != nil {
		return p, fmt.Errorf("total: %w", err)
	}
	if p.DepositPaid, err = d.money(pd.Deposit); err != nil {
		return p, fmt.Errorf("deposit: %w", err)
	}
	if p.DepositDate, err = parseDate(pd.DepositDate); err != nil {
		return p, fmt.Errorf("deposit_date: %w", err)
	}
	if p.ExpectedStart, err = parseDate(pd.Start); err != nil {
		return p, fmt.Errorf("start: %w", err)
	}
	if p.ExpectedCompletion, err = parseDate(pd.Completion); err != nil {
		return p, fmt.Errorf("completion: %w", err)
	}
	for i, pay := range pd.Payments {
		payment := model.Payment{ID: pay.ID, Description: pay.Note}
		if payment.ID == "" {
			payment.ID = uuid.New().String()
		}
		if payment.Amount, err = d.money(pay.Amount); err != nil {
			return p, fmt.Errorf("payment %d: %w", i+1, err)
		}
		if payment.Date, err = parseDate(pay.Date); err != nil {
			return p, fmt.Errorf("payment %d: %w", i+1, err)
		}
		if payment.Date.IsZero() {
			return p, fmt.Errorf("payment %d: date is required", i+1)
		}
		if payment.Type, err = model.ParsePaymentType(pay.Type); err != nil {
			return p, fmt.Errorf("payment %d: %w", i+1, err)
		}
		p.Payments = append(p.Payments, payment)
	}
	for _, md := range pd.Milestones {
		ms := model.Milestone{Name: md.Name, Completed: md.Completed}
		if ms.Amount, err = d.money(md.Amount); err != nil {
			return p, fmt.Errorf("milestone %q: %w", md.Name, err)
		}
		if ms.DueDate, err = parseDate(md.Due); err != nil {
			return p, fmt.Errorf("milestone %q: %w", md.Name, err)
		}
		p.Milestones = append(p.Milestones, ms)
	}
	return p, nil
}

func (d decoder) plan(owner string, pd planDoc) (model.MonthlyPlan, error) {
	p := model.MonthlyPlan{Owner: owner, IsActive: !pd.Inactive}
	var err error
	if p.Month, err = model.ParseMonth(pd.Month); err != nil {
		return p, err
	}
	if p.Target, err = d.money(pd.Target); err != nil {
		return p, fmt.Errorf("target: %w", err)
	}
	if p.BreakEvenTarget, err = d.money(pd.BreakEven); err != nil {
		return p, fmt.Errorf("break_even: %w", err)
	}
	for _, sd := range pd.Revenue {
		amt, err := d.money(sd.Amount)
		if err != nil {
			return p, fmt.Errorf("revenue %q: %w", sd.Name, err)
		}
		p.RevenueStreams = append(p.RevenueStreams, model.RevenueStream{Name: sd.Name, Amount: amt})
	}
	if p.Overhead, err = d.expenses(pd.Overhead, true); err != nil {
		return p, err
	}
	if p.GeneralExpenses, err = d.expenses(pd.Expenses, false); err != nil {
		return p, err
	}
	return p, nil
}

// Writer is the store surface an import needs.
type Writer interface {
	SaveSettings(ctx context.Context, s model.Settings) error
	SaveProject(ctx context.Context, p model.Project) (model.Project, error)
	SavePlan(ctx context.Context, p model.MonthlyPlan) (model.MonthlyPlan, error)
}

// Result counts the records written by Apply.
type Result struct {
	Settings bool
	Projects int
	Plans    int
}

// Apply writes l through w. It stops at the first failed write.
func Apply(ctx context.Context, w Writer, l *Ledger) (Result, error) {
	var res Result
	if l.Settings != nil {
		if err := w.SaveSettings(ctx, *l.Settings); err != nil {
			return res, err
		}
		res.Settings = true
	}
	for _, p := range l.Projects {
		if _, err := w.SaveProject(ctx, p); err != nil {
			return res, err
		}
		res.Projects++
	}
	for _, p := range l.Plans {
		if _, err := w.SavePlan(ctx, p); err != nil {
			return res, err
		}
		res.Plans++
	}
	return res, nil
}
