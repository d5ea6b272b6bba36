package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/tui/components"
	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

func (a App) renderCashFlowTab(cw int) string {
	t := theme.Active
	points := a.data.CashFlow
	if len(points) == 0 {
		return components.ContentCard("Cash Flow", "No months to project", cw)
	}

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	signed := func(d decimal.Decimal, w int) string {
		return lipgloss.NewStyle().Foreground(t.Signed(d.Sign())).Background(t.Surface).
			Render(fmt.Sprintf("%*s", w, cli.FormatCompact(d)))
	}

	const colW = 11
	var body strings.Builder
	body.WriteString(headStyle.Render(fmt.Sprintf("%-8s%*s%*s%*s%*s%*s",
		"Month", colW, "Projected", colW, "Actual", colW, "Gap", colW, "Expenses", colW, "Profit")))
	body.WriteString("\n")

	projected, actual := decimal.Zero, decimal.Zero
	for _, p := range points {
		gap := p.Actual.Sub(p.Projected)
		projected = projected.Add(p.Projected)
		actual = actual.Add(p.Actual)

		body.WriteString(cellStyle.Render(fmt.Sprintf("%-8s%*s%*s",
			p.Month.Short(), colW, cli.FormatCompact(p.Projected), colW, cli.FormatCompact(p.Actual))))
		body.WriteString(signed(gap, colW))
		body.WriteString(cellStyle.Render(fmt.Sprintf("%*s", colW, cli.FormatCompact(p.Expenses))))
		body.WriteString(signed(p.Profit, colW))
		body.WriteString("\n")
	}
	body.WriteString(dimStyle.Render(strings.Repeat("─", 8+5*colW)))
	body.WriteString("\n")
	body.WriteString(cellStyle.Render(fmt.Sprintf("%-8s%*s%*s", "Total", colW, cli.FormatCompact(projected), colW, cli.FormatCompact(actual))))
	body.WriteString(signed(actual.Sub(projected), colW))
	body.WriteString("\n\n")
	body.WriteString(dimStyle.Render("Projected counts contracts completing in the month; actual counts deposits received and balances due."))

	values := make([]float64, len(points))
	labels := make([]string, len(points))
	for i, p := range points {
		values[i] = p.Profit.InexactFloat64()
		labels[i] = p.Month.Short()
	}
	title := fmt.Sprintf("Cash Flow (%d months, %s)", len(points), a.base())

	if a.isCompactLayout() {
		return components.ContentCard(title, body.String(), cw) + "\n" +
			components.ContentCard("Profit by month", components.DivergingBars(values, labels, components.CardInnerWidth(cw)), cw)
	}
	halves := components.LayoutRow(cw, 2)
	return components.CardRow([]string{
		components.ContentCard(title, body.String(), halves[0]),
		components.ContentCard("Profit by month", components.DivergingBars(values, labels, components.CardInnerWidth(halves[1])), halves[1]),
	})
}
