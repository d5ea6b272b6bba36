package forecast

import (
	"github.com/clickoflow/clickoflow/internal/model"
)

// Compare returns the first k months of rf with a summary scoped to them.
// k <= 0 means ComparisonMonths.
func Compare(rf model.RollingForecast, k int) model.RollingForecast {
	if k <= 0 {
		k = ComparisonMonths
	}
	k = min(k, len(rf.Months))
	months := rf.Months[:k:k]
	return model.RollingForecast{
		Start:   rf.Start,
		Months:  months,
		Summary: Summarize(months),
	}
}

// CashFlowProjection returns the first k months (CashFlowMonths when
// k <= 0) from start, pairing contract-basis (projected) revenue with
// cash-basis (actual) revenue.
func (e *Engine) CashFlowProjection(projects []model.Project, plans PlanLookup, start model.Month, k int) ([]model.CashFlowPoint, error) {
	if k <= 0 {
		k = CashFlowMonths
	}
	rf, err := e.GenerateForecast(projects, plans, start, k)
	if err != nil {
		return nil, err
	}
	return e.CashFlow(rf, projects)
}

// CashFlow derives cash-flow points for every month of rf.
func (e *Engine) CashFlow(rf model.RollingForecast, projects []model.Project) ([]model.CashFlowPoint, error) {
	points := make([]model.CashFlowPoint, 0, len(rf.Months))
	for _, mf := range rf.Months {
		actual, err := e.RealizedCashRevenue(projects, mf.Month)
		if err != nil {
			return nil, err
		}
		points = append(points, model.CashFlowPoint{
			Month:     mf.Month,
			Projected: mf.Revenue,
			Actual:    actual,
			Expenses:  mf.Expenses,
			Profit:    mf.Profit,
		})
	}
	return points, nil
}
