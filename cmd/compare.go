package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/forecast"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the next months (default 6) against the full horizon",
	RunE:  runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	k := monthCount(s.cfg.General.ComparisonMonths, forecast.ComparisonMonths)
	horizon := max(s.cfg.General.HorizonMonths, k)
	rf, _, _, err := s.rollingForecast(ctx, horizon)
	if err != nil {
		return err
	}
	near := forecast.Compare(rf, k)
	base := s.base()

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("NEXT %d MONTHS vs %d", near.Summary.Months, rf.Summary.Months)))
	fmt.Println()
	fmt.Print(cli.RenderTable(forecastTable(near, base)))

	a, b := near.Summary, rf.Summary
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Per month", fmt.Sprintf("Next %d", a.Months), fmt.Sprintf("All %d", b.Months), "Delta"},
		Rows: [][]string{
			{"Revenue", cli.FormatMoney(a.AverageRevenue, base), cli.FormatMoney(b.AverageRevenue, base), cli.FormatDelta(a.AverageRevenue, b.AverageRevenue, base)},
			{"Expenses", cli.FormatMoney(a.AverageExpenses, base), cli.FormatMoney(b.AverageExpenses, base), cli.FormatDelta(a.AverageExpenses, b.AverageExpenses, base)},
			{"Profit", cli.FormatMoney(a.AverageProfit, base), cli.FormatMoney(b.AverageProfit, base), cli.FormatDelta(a.AverageProfit, b.AverageProfit, base)},
			{"---"},
			{"Profitable months", fmt.Sprintf("%d", a.ProfitableMonths), fmt.Sprintf("%d", b.ProfitableMonths), ""},
		},
	}))
	return nil
}
