// Package report renders forecasts as Markdown documents.
package report

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/glamour"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/currency"
	"github.com/clickoflow/clickoflow/internal/model"
)

// Input is everything a report covers. CashFlow and Dashboard are optional.
type Input struct {
	Owner     string
	Base      string
	Forecast  model.RollingForecast
	CashFlow  []model.CashFlowPoint
	Dashboard *model.DashboardSummary
}

// Markdown builds the report document.
func Markdown(in Input) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	money := func(d decimal.Decimal) string { return currency.Format(d, in.Base) }

	rf := in.Forecast
	title := "Revenue Forecast"
	if in.Owner != "" {
		title += " for " + in.Owner
	}
	doc.H1(title)
	if len(rf.Months) > 0 {
		last := rf.Months[len(rf.Months)-1].Month
		doc.PlainTextf("%s to %s, amounts in %s.", rf.Start, last, in.Base)
	}

	s := rf.Summary
	doc.H2("Summary")
	breakEven := "not reached"
	if s.BreakEvenMonth != nil {
		breakEven = s.BreakEvenMonth.String()
	}
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total revenue", money(s.TotalRevenue)},
			{"Total expenses", money(s.TotalExpenses)},
			{"Total profit", money(s.TotalProfit)},
			{"Average monthly revenue", money(s.AverageRevenue)},
			{"Average monthly profit", money(s.AverageProfit)},
			{"Profitable months", fmt.Sprintf("%d of %d", s.ProfitableMonths, s.Months)},
			{"Break-even month", breakEven},
		},
	})

	if d := in.Dashboard; d != nil {
		doc.H2f("This month: %s", d.Month)
		doc.BulletList(
			fmt.Sprintf("%s %d projects", md.Bold("Active:"), d.Projects),
			fmt.Sprintf("%s %s", md.Bold("Deposits received:"), money(d.DepositsReceived)),
			fmt.Sprintf("%s %s", md.Bold("Payments due:"), money(d.PaymentsDue)),
			fmt.Sprintf("%s %s", md.Bold("Cash profit:"), money(d.Profit)),
			fmt.Sprintf("%s %s%%", md.Bold("Target achievement:"), d.TargetAchievement.StringFixed(1)),
		)
	}

	doc.H2("Monthly forecast")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Month", "Revenue", "Expenses", "Profit", "Margin", "Target"},
		Rows:   [][]string{},
	}
	for _, f := range rf.Months {
		table.Rows = append(table.Rows, []string{
			f.Month.String(),
			money(f.Revenue),
			money(f.Expenses),
			money(f.Profit),
			f.ProfitMargin.StringFixed(1) + "%",
			f.TargetAchievement.StringFixed(1) + "%",
		})
	}
	doc.Table(table)

	if len(in.CashFlow) > 0 {
		doc.H2("Cash flow")
		cash := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Month", "Projected", "Actual", "Expenses"},
			Rows:      [][]string{},
		}
		for _, p := range in.CashFlow {
			cash.Rows = append(cash.Rows, []string{
				p.Month.String(), money(p.Projected), money(p.Actual), money(p.Expenses),
			})
		}
		doc.Table(cash)
	}

	return doc.String()
}

// Render formats a Markdown document for the terminal.
func Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}
