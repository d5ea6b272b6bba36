package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/model"
)

var monthCmd = &cobra.Command{
	Use:   "month <month>",
	Short: "Forecast a single month, e.g. \"June 2025\" or 2025-06",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMonth,
}

func init() {
	rootCmd.AddCommand(monthCmd)
}

func runMonth(_ *cobra.Command, args []string) error {
	m, err := model.ParseMonth(strings.Join(args, " "))
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	l, plans, err := s.ledger(ctx)
	if err != nil {
		return err
	}
	plan, err := plans.PlanFor(m)
	if err != nil {
		return explain(err)
	}
	mf, err := s.engine.ForecastMonth(m, l.Projects, plan)
	if err != nil {
		return explain(err)
	}

	base := s.base()
	fmt.Println()
	fmt.Println(cli.RenderTitle(strings.ToUpper(m.String())))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Contracted revenue", cli.FormatMoney(mf.Revenue, base)},
			{"Planned revenue", cli.FormatMoney(mf.PlannedRevenue, base)},
			{"---"},
			{"Overhead", cli.FormatMoney(mf.Overhead, base)},
			{"General expenses", cli.FormatMoney(mf.GeneralExpenses, base)},
			{"Total expenses", cli.FormatMoney(mf.Expenses, base)},
			{"---"},
			{"Profit", cli.RenderSigned(mf.Profit, cli.FormatMoney(mf.Profit, base))},
			{"Profit margin", cli.FormatPercent(mf.ProfitMargin)},
			{"---"},
			{"Target", cli.FormatMoney(mf.Target, base)},
			{"Achievement", cli.RenderProgressBar(mf.TargetAchievement.InexactFloat64(), 20)},
			{"Break-even target", cli.FormatMoney(mf.BreakEvenTarget, base)},
			{"Break-even gap", cli.RenderSigned(mf.BreakEvenGap, cli.FormatDelta(mf.BreakEvenGap, decimal.Zero, base))},
		},
	}))
	return nil
}
