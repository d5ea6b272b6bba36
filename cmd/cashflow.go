package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/forecast"
)

var cashflowCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Projected vs actual cash by month (default 12 months)",
	RunE:  runCashFlow,
}

func init() {
	rootCmd.AddCommand(cashflowCmd)
}

func runCashFlow(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	start, err := startMonth()
	if err != nil {
		return err
	}
	l, plans, err := s.ledger(ctx)
	if err != nil {
		return err
	}
	k := monthCount(s.cfg.General.CashFlowMonths, forecast.CashFlowMonths)
	points, err := s.engine.CashFlowProjection(l.Projects, plans, start, k)
	if err != nil {
		return explain(err)
	}
	base := s.base()

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CASH FLOW  %d months (%s)", len(points), base)))
	fmt.Println()

	t := cli.Table{Headers: []string{"Month", "Projected", "Actual", "Gap", "Expenses", "Profit"}}
	totals := make([]decimal.Decimal, 4)
	profits := make([]float64, 0, len(points))
	for _, p := range points {
		gap := p.Actual.Sub(p.Projected)
		t.Rows = append(t.Rows, []string{
			p.Month.Short(),
			cli.FormatCompact(p.Projected),
			cli.FormatCompact(p.Actual),
			cli.RenderSigned(gap, cli.FormatCompact(gap)),
			cli.FormatCompact(p.Expenses),
			cli.RenderSigned(p.Profit, cli.FormatCompact(p.Profit)),
		})
		totals[0] = totals[0].Add(p.Projected)
		totals[1] = totals[1].Add(p.Actual)
		totals[2] = totals[2].Add(p.Expenses)
		totals[3] = totals[3].Add(p.Profit)
		profits = append(profits, p.Profit.InexactFloat64())
	}
	gap := totals[1].Sub(totals[0])
	t.Rows = append(t.Rows, []string{"---"}, []string{
		"Total",
		cli.FormatCompact(totals[0]),
		cli.FormatCompact(totals[1]),
		cli.RenderSigned(gap, cli.FormatCompact(gap)),
		cli.FormatCompact(totals[2]),
		cli.RenderSigned(totals[3], cli.FormatCompact(totals[3])),
	})
	fmt.Print(cli.RenderTable(t))

	if len(profits) > 1 {
		fmt.Printf("  Profit trend  %s\n\n", cli.RenderSparkline(profits))
	}
	return nil
}
