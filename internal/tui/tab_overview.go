package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/forecast"
	"github.com/clickoflow/clickoflow/internal/model"
	"github.com/clickoflow/clickoflow/internal/tui/components"
	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	rf := a.data.Forecast
	sum := rf.Summary
	dash := a.data.Dashboard
	base := a.base()
	var b strings.Builder

	// Row 1: horizon totals
	breakEven := "not reached"
	if sum.BreakEvenMonth != nil {
		breakEven = sum.BreakEvenMonth.String()
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Revenue", Value: cli.FormatMoney(sum.TotalRevenue, base), Delta: cli.FormatCompact(sum.AverageRevenue) + "/mo"},
		{Label: "Expenses", Value: cli.FormatMoney(sum.TotalExpenses, base), Delta: cli.FormatCompact(sum.AverageExpenses) + "/mo"},
		{Label: "Profit", Value: cli.FormatMoney(sum.TotalProfit, base), Delta: cli.FormatCompact(sum.AverageProfit) + "/mo", Sign: sum.TotalProfit.Sign()},
		{Label: "Break-even", Value: breakEven, Delta: fmt.Sprintf("%d of %d months profitable", sum.ProfitableMonths, sum.Months)},
	}, cw))
	b.WriteString("\n")

	// Row 2: cash view of the start month
	active := dash.StatusCounts[model.StatusInProgress]
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Projects this month", Value: cli.FormatNumber(int64(dash.Projects)), Delta: fmt.Sprintf("%d in progress", active)},
		{Label: "Deposits received", Value: cli.FormatMoney(dash.DepositsReceived, base)},
		{Label: "Payments due", Value: cli.FormatMoney(dash.PaymentsDue, base)},
		{Label: "Cash profit", Value: cli.FormatMoney(dash.Profit, base), Delta: "expenses " + cli.FormatCompact(dash.Expenses), Sign: dash.Profit.Sign()},
	}, cw))
	b.WriteString("\n")

	// Row 3: targets and the next months' profit
	innerW := components.CardInnerWidth(cw)
	next := forecast.Compare(rf, forecast.ComparisonMonths)
	values := make([]float64, len(next.Months))
	labels := make([]string, len(next.Months))
	for i, mf := range next.Months {
		values[i] = mf.Profit.InexactFloat64()
		labels[i] = mf.Month.Short()
	}

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard(dash.Month.String()+" targets", a.targetBars(innerW), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard(fmt.Sprintf("Profit, next %d months", len(next.Months)),
			components.DivergingBars(values, labels, innerW), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard(dash.Month.String()+" targets", a.targetBars(components.CardInnerWidth(halves[0])), halves[0]),
			components.ContentCard(fmt.Sprintf("Profit, next %d months", len(next.Months)),
				components.DivergingBars(values, labels, components.CardInnerWidth(halves[1])), halves[1]),
		}))
	}
	b.WriteString("\n")

	// Row 4: profit trend across the horizon
	trend := make([]float64, len(rf.Months))
	for i, mf := range rf.Months {
		trend[i] = mf.Profit.InexactFloat64()
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Profit trend (%d months)", len(rf.Months)),
		components.Sparkline(trend, t.Accent),
		cw,
	))

	return b.String()
}

// targetBars shows the start month's achievement on both bases: cash
// collected (capped at 100) and contracted revenue (uncapped).
func (a App) targetBars(innerW int) string {
	t := theme.Active
	dash := a.data.Dashboard
	barW := max(innerW-22, 10)

	lines := []string{components.TargetBar("Cash this month", dash.TargetAchievement.InexactFloat64(), 16, barW)}
	if months := a.data.Forecast.Months; len(months) > 0 {
		lines = append(lines, components.TargetBar("Contracted", months[0].TargetAchievement.InexactFloat64(), 16, barW))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render("target "+cli.FormatMoney(dash.Target, a.base())))
	return strings.Join(lines, "\n")
}
