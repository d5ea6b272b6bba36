package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/model"
	"github.com/clickoflow/clickoflow/internal/tui/components"
	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

var forecastColumns = []struct {
	title string
	min   int
}{
	{"Month", 9},
	{"Revenue", 12},
	{"Expenses", 12},
	{"Profit", 12},
	{"Margin", 8},
	{"Target", 8},
	{"Break-even gap", 14},
}

func newForecastTable() table.Model {
	t := table.New(
		table.WithColumns(forecastTableColumns(0)),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(forecastTableStyles())
	return t
}

func forecastTableStyles() table.Styles {
	t := theme.Active
	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(t.TextMuted).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Bold(true)
	s.Cell = s.Cell.Foreground(t.TextPrimary)
	s.Selected = s.Selected.
		Foreground(t.TextPrimary).
		Background(t.SurfaceBright).
		Bold(true)
	return s
}

// forecastTableColumns spreads spare width over the numeric columns.
func forecastTableColumns(width int) []table.Column {
	base := 0
	for _, c := range forecastColumns {
		base += c.min + 2 // cell padding
	}
	spare := max(width-base, 0) / (len(forecastColumns) - 1)

	cols := make([]table.Column, len(forecastColumns))
	for i, c := range forecastColumns {
		w := c.min
		if i > 0 {
			w += spare
		}
		cols[i] = table.Column{Title: c.title, Width: w}
	}
	return cols
}

func forecastRows(rf model.RollingForecast) []table.Row {
	rows := make([]table.Row, len(rf.Months))
	for i, mf := range rf.Months {
		rows[i] = table.Row{
			mf.Month.Short(),
			cli.FormatCompact(mf.Revenue),
			cli.FormatCompact(mf.Expenses),
			cli.FormatCompact(mf.Profit),
			cli.FormatPercent(mf.ProfitMargin),
			cli.FormatPercent(mf.TargetAchievement),
			cli.FormatCompact(mf.BreakEvenGap),
		}
	}
	return rows
}

func (a *App) resizeTable() {
	cw := a.contentWidth()
	inner := components.CardInnerWidth(cw)
	if !a.isCompactLayout() {
		inner = components.CardInnerWidth(components.LayoutRow(cw, 2)[0])
	}
	a.table.SetColumns(forecastTableColumns(inner))
	a.table.SetWidth(inner)
	a.table.SetHeight(max(a.height-14, 6))
	a.table.SetStyles(forecastTableStyles())
}

func (a App) selectedMonth() (model.MonthForecast, bool) {
	months := a.data.Forecast.Months
	i := a.table.Cursor()
	if i < 0 || i >= len(months) {
		return model.MonthForecast{}, false
	}
	return months[i], true
}

func (a App) renderForecastTab(cw int) string {
	t := theme.Active
	rf := a.data.Forecast

	title := fmt.Sprintf("Rolling Forecast (%d months)", len(rf.Months))
	var top string
	if a.isCompactLayout() {
		top = components.ContentCard(title, a.table.View(), cw) + "\n" + a.renderMonthDetail(cw)
	} else {
		halves := components.LayoutRow(cw, 2)
		top = components.CardRow([]string{
			components.ContentCard(title, a.table.View(), halves[0]),
			a.renderMonthDetail(halves[1]),
		})
	}

	values := make([]float64, len(rf.Months))
	labels := make([]string, len(rf.Months))
	for i, mf := range rf.Months {
		values[i] = mf.Revenue.InexactFloat64()
		labels[i] = mf.Month.Start().Format("Jan")
	}
	chart := components.ContentCard(
		"Contracted Revenue",
		components.BarChart(values, labels, t.Blue, components.CardInnerWidth(cw), 8),
		cw,
	)
	return top + "\n" + chart
}

func (a App) renderMonthDetail(outerW int) string {
	t := theme.Active
	mf, ok := a.selectedMonth()
	if !ok {
		return components.ContentCard("Month", "No month selected", outerW)
	}
	base := a.base()
	innerW := components.CardInnerWidth(outerW)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	signed := func(d decimal.Decimal) string {
		return lipgloss.NewStyle().Foreground(t.Signed(d.Sign())).Background(t.Surface).Render(cli.FormatMoney(d, base))
	}
	line := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-18s", label)) + value
	}

	lines := []string{
		line("Contracted revenue", valueStyle.Render(cli.FormatMoney(mf.Revenue, base))),
		line("Planned revenue", valueStyle.Render(cli.FormatMoney(mf.PlannedRevenue, base))),
		line("Overhead", valueStyle.Render(cli.FormatMoney(mf.Overhead, base))),
		line("General expenses", valueStyle.Render(cli.FormatMoney(mf.GeneralExpenses, base))),
		line("Profit", signed(mf.Profit)),
		line("Profit margin", valueStyle.Render(cli.FormatPercent(mf.ProfitMargin))),
		line("Break-even gap", signed(mf.BreakEvenGap)),
		"",
		components.TargetBar("Target", mf.TargetAchievement.InexactFloat64(), 8, max(innerW-15, 10)),
		labelStyle.Render("of " + cli.FormatMoney(mf.Target, base)),
	}
	return components.ContentCard(mf.Month.String(), strings.Join(lines, "\n"), outerW)
}
