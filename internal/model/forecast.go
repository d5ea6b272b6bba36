package model

import "github.com/shopspring/decimal"

// MonthForecast is the contract-basis forecast for one month. All amounts
// are in the base currency; percentages are 0-100 and may exceed 100.
type MonthForecast struct {
	Month             Month           `json:"month"`
	Revenue           decimal.Decimal `json:"revenue"`
	PlannedRevenue    decimal.Decimal `json:"planned_revenue"`
	Overhead          decimal.Decimal `json:"overhead"`
	GeneralExpenses   decimal.Decimal `json:"general_expenses"`
	Expenses          decimal.Decimal `json:"expenses"`
	Profit            decimal.Decimal `json:"profit"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	Target            decimal.Decimal `json:"target"`
	TargetAchievement decimal.Decimal `json:"target_achievement"`
	BreakEvenTarget   decimal.Decimal `json:"break_even_target"`
	BreakEvenGap      decimal.Decimal `json:"break_even_gap"`
}

// ForecastSummary rolls up a run of months.
type ForecastSummary struct {
	Months           int             `json:"months"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	AverageRevenue   decimal.Decimal `json:"average_monthly_revenue"`
	AverageExpenses  decimal.Decimal `json:"average_monthly_expenses"`
	AverageProfit    decimal.Decimal `json:"average_monthly_profit"`
	BreakEvenMonth   *Month          `json:"break_even_month"`
	ProfitableMonths int             `json:"profitable_months"`
}

// RollingForecast is a horizon of month forecasts with their summary.
type RollingForecast struct {
	Start   Month           `json:"start"`
	Months  []MonthForecast `json:"months"`
	Summary ForecastSummary `json:"summary"`
}

// CashFlowPoint compares contracted (projected) and cash-basis (actual)
// revenue for one month.
type CashFlowPoint struct {
	Month     Month           `json:"month"`
	Projected decimal.Decimal `json:"projected"`
	Actual    decimal.Decimal `json:"actual"`
	Expenses  decimal.Decimal `json:"expenses"`
	Profit    decimal.Decimal `json:"profit"`
}

// DashboardSummary is the cash-basis view of a single month. Its
// TargetAchievement is capped at 100.
type DashboardSummary struct {
	Month             Month                 `json:"month"`
	Projects          int                   `json:"projects"`
	StatusCounts      map[ProjectStatus]int `json:"status_counts"`
	DepositsReceived  decimal.Decimal       `json:"deposits_received"`
	PaymentsDue       decimal.Decimal       `json:"payments_due"`
	CashRevenue       decimal.Decimal       `json:"cash_revenue"`
	PlannedRevenue    decimal.Decimal       `json:"planned_revenue"`
	Expenses          decimal.Decimal       `json:"expenses"`
	Profit            decimal.Decimal       `json:"profit"`
	Target            decimal.Decimal       `json:"target"`
	TargetAchievement decimal.Decimal       `json:"target_achievement"`
}
