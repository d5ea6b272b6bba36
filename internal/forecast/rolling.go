package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/model"
)

// GenerateForecast runs ForecastMonth for horizon consecutive months from
// start and summarizes them.
func (e *Engine) GenerateForecast(projects []model.Project, plans PlanLookup, start model.Month, horizon int) (model.RollingForecast, error) {
	if horizon <= 0 {
		return model.RollingForecast{}, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}
	if plans == nil {
		return model.RollingForecast{}, ErrSettingsNotFound
	}

	months := make([]model.MonthForecast, 0, horizon)
	for i := range horizon {
		m := start.AddMonths(i)
		plan, err := plans.PlanFor(m)
		if err != nil {
			return model.RollingForecast{}, fmt.Errorf("forecast %s: %w", m, err)
		}
		mf, err := e.ForecastMonth(m, projects, plan)
		if err != nil {
			return model.RollingForecast{}, fmt.Errorf("forecast %s: %w", m, err)
		}
		months = append(months, mf)
	}

	return model.RollingForecast{
		Start:   start,
		Months:  months,
		Summary: Summarize(months),
	}, nil
}

// Summarize reduces a run of months: totals, per-month averages, the first
// month with profit >= 0, and the count of months with profit > 0.
func Summarize(months []model.MonthForecast) model.ForecastSummary {
	s := model.ForecastSummary{
		Months:          len(months),
		TotalRevenue:    decimal.Zero,
		TotalExpenses:   decimal.Zero,
		TotalProfit:     decimal.Zero,
		AverageRevenue:  decimal.Zero,
		AverageExpenses: decimal.Zero,
		AverageProfit:   decimal.Zero,
	}
	for _, mf := range months {
		s.TotalRevenue = s.TotalRevenue.Add(mf.Revenue)
		s.TotalExpenses = s.TotalExpenses.Add(mf.Expenses)
		s.TotalProfit = s.TotalProfit.Add(mf.Profit)

		if s.BreakEvenMonth == nil && !mf.Profit.IsNegative() {
			m := mf.Month
			s.BreakEvenMonth = &m
		}
		if mf.Profit.IsPositive() {
			s.ProfitableMonths++
		}
	}
	if n := len(months); n > 0 {
		count := decimal.NewFromInt(int64(n))
		s.AverageRevenue = s.TotalRevenue.Div(count)
		s.AverageExpenses = s.TotalExpenses.Div(count)
		s.AverageProfit = s.TotalProfit.Div(count)
	}
	return s
}
