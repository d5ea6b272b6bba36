// Package forecast computes month forecasts, rolling forecasts and cash
// projections from project ledgers and expense plans. Every function is a
// pure computation over its inputs; loading data is the caller's job.
package forecast

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/currency"
	"github.com/clickoflow/clickoflow/internal/model"
)

// Forecast window defaults.
const (
	DefaultHorizon   = 24
	ComparisonMonths = 6
	CashFlowMonths   = 12
)

var (
	// ErrSettingsNotFound means no plan or settings record exists for the
	// owner, so expenses cannot be computed.
	ErrSettingsNotFound = errors.New("settings not found")
	// ErrInvalidHorizon is returned for a non-positive forecast horizon.
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
)

var hundred = decimal.NewFromInt(100)

// Engine evaluates forecasts against a currency normalizer.
type Engine struct {
	rates *currency.Normalizer
}

// NewEngine returns an engine converting amounts with n.
func NewEngine(n *currency.Normalizer) *Engine {
	return &Engine{rates: n}
}

// Normalizer returns the engine's currency normalizer.
func (e *Engine) Normalizer() *currency.Normalizer { return e.rates }

func (e *Engine) base(m model.Money) (decimal.Decimal, error) {
	return e.rates.BaseAmount(m)
}

// ContractedRevenue is the contract-basis revenue of month m: the full
// contract of every non-cancelled project completing in m, plus completed
// milestones due in m of non-cancelled projects completing in another month.
func (e *Engine) ContractedRevenue(projects []model.Project, m model.Month) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range projects {
		if p.IsCancelled() {
			continue
		}
		if m.Contains(p.ExpectedCompletion) {
			v, err := e.base(p.TotalAmount)
			if err != nil {
				return decimal.Zero, projectErr(p, err)
			}
			total = total.Add(v)
			continue
		}
		for _, ms := range p.Milestones {
			if !ms.Completed || !m.Contains(ms.DueDate) {
				continue
			}
			v, err := e.base(ms.Amount)
			if err != nil {
				return decimal.Zero, projectErr(p, err)
			}
			total = total.Add(v)
		}
	}
	return total, nil
}

// PlannedRevenue sums the plan's revenue streams.
func (e *Engine) PlannedRevenue(plan *model.MonthlyPlan) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, rs := range plan.RevenueStreams {
		v, err := e.base(rs.Amount)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, nil
}

// ForecastMonth computes the contract-basis forecast for month m. A nil
// plan fails with ErrSettingsNotFound.
func (e *Engine) ForecastMonth(m model.Month, projects []model.Project, plan *model.MonthlyPlan) (model.MonthForecast, error) {
	if plan == nil {
		return model.MonthForecast{}, ErrSettingsNotFound
	}

	revenue, err := e.ContractedRevenue(projects, m)
	if err != nil {
		return model.MonthForecast{}, err
	}
	planned, err := e.PlannedRevenue(plan)
	if err != nil {
		return model.MonthForecast{}, err
	}
	overhead, err := e.OverheadInMonth(plan.Overhead, m)
	if err != nil {
		return model.MonthForecast{}, err
	}
	general, err := e.GeneralExpensesInMonth(plan.GeneralExpenses, m)
	if err != nil {
		return model.MonthForecast{}, err
	}
	target, err := e.base(plan.Target)
	if err != nil {
		return model.MonthForecast{}, err
	}
	breakEven, err := e.base(plan.BreakEvenTarget)
	if err != nil {
		return model.MonthForecast{}, err
	}

	expenses := overhead.Add(general)
	profit := revenue.Sub(expenses)

	return model.MonthForecast{
		Month:             m,
		Revenue:           revenue,
		PlannedRevenue:    planned,
		Overhead:          overhead,
		GeneralExpenses:   general,
		Expenses:          expenses,
		Profit:            profit,
		ProfitMargin:      profitMargin(profit, revenue),
		Target:            target,
		TargetAchievement: targetAchievement(revenue, target),
		BreakEvenTarget:   breakEven,
		BreakEvenGap:      profit.Sub(breakEven),
	}, nil
}

func profitMargin(profit, revenue decimal.Decimal) decimal.Decimal {
	if !revenue.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(revenue).Mul(hundred)
}

// targetAchievement treats a target below 1 as 1 and is not capped.
func targetAchievement(revenue, target decimal.Decimal) decimal.Decimal {
	if !revenue.IsPositive() {
		return decimal.Zero
	}
	return revenue.Div(decimal.Max(target, decimal.NewFromInt(1))).Mul(hundred)
}
