package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/model"
)

// Dashboard computes the cash-basis summary of month m: visible projects,
// deposits received, balances due and expenses from the month's plan.
// Target achievement is capped at 100 here, unlike ForecastMonth.
func (e *Engine) Dashboard(m model.Month, projects []model.Project, plans PlanLookup) (model.DashboardSummary, error) {
	if plans == nil {
		return model.DashboardSummary{}, ErrSettingsNotFound
	}
	plan, err := plans.PlanFor(m)
	if err != nil {
		return model.DashboardSummary{}, err
	}

	visible := ProjectsInMonth(projects, m)
	counts := make(map[model.ProjectStatus]int)
	for _, p := range visible {
		counts[p.Status]++
	}

	deposits, err := e.DepositsReceivedInMonth(projects, m)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	due, err := e.PaymentsDueInMonth(projects, m)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	planned, err := e.PlannedRevenue(plan)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	overhead, err := e.OverheadInMonth(plan.Overhead, m)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	general, err := e.GeneralExpensesInMonth(plan.GeneralExpenses, m)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	target, err := e.base(plan.Target)
	if err != nil {
		return model.DashboardSummary{}, err
	}

	cash := deposits.Add(due)
	expenses := overhead.Add(general)

	return model.DashboardSummary{
		Month:             m,
		Projects:          len(visible),
		StatusCounts:      counts,
		DepositsReceived:  deposits,
		PaymentsDue:       due,
		CashRevenue:       cash,
		PlannedRevenue:    planned,
		Expenses:          expenses,
		Profit:            cash.Sub(expenses),
		Target:            target,
		TargetAchievement: decimal.Min(targetAchievement(cash, target), hundred),
	}, nil
}
