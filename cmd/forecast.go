package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/forecast"
	"github.com/clickoflow/clickoflow/internal/model"
	"github.com/clickoflow/clickoflow/internal/store"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Rolling month-by-month forecast (default 24 months)",
	RunE:  runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	rf, _, _, err := s.rollingForecast(ctx, monthCount(s.cfg.General.HorizonMonths, forecast.DefaultHorizon))
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  %s  %d months", s.owner, rf.Summary.Months)))
	fmt.Println()
	fmt.Print(cli.RenderTable(forecastTable(rf, s.base())))
	fmt.Print(cli.RenderTable(summaryTable(rf.Summary, s.base())))
	return nil
}

// rollingForecast loads the ledger and runs the forecast from --from.
func (s *session) rollingForecast(ctx context.Context, horizon int) (model.RollingForecast, *store.Ledger, *forecast.PlanBook, error) {
	start, err := startMonth()
	if err != nil {
		return model.RollingForecast{}, nil, nil, err
	}
	l, plans, err := s.ledger(ctx)
	if err != nil {
		return model.RollingForecast{}, nil, nil, err
	}
	rf, err := s.engine.GenerateForecast(l.Projects, plans, start, horizon)
	if err != nil {
		return model.RollingForecast{}, nil, nil, explain(err)
	}
	return rf, l, plans, nil
}

// explain adds a next step to errors a user can fix.
func explain(err error) error {
	if errors.Is(err, forecast.ErrSettingsNotFound) {
		return fmt.Errorf("%w (import a ledger with `clickoflow import <file.yaml>`)", err)
	}
	return err
}

func forecastTable(rf model.RollingForecast, base string) cli.Table {
	t := cli.Table{
		Title:   "Months (" + base + ")",
		Headers: []string{"Month", "Revenue", "Expenses", "Profit", "Margin", "Target"},
	}
	for _, mf := range rf.Months {
		t.Rows = append(t.Rows, []string{
			mf.Month.Short(),
			cli.FormatCompact(mf.Revenue),
			cli.FormatCompact(mf.Expenses),
			cli.RenderSigned(mf.Profit, cli.FormatCompact(mf.Profit)),
			cli.FormatPercent(mf.ProfitMargin),
			cli.FormatPercent(mf.TargetAchievement),
		})
	}
	return t
}

func summaryTable(sum model.ForecastSummary, base string) cli.Table {
	breakEven := "never"
	if sum.BreakEvenMonth != nil {
		breakEven = sum.BreakEvenMonth.String()
	}
	return cli.Table{
		Headers: []string{"Summary", "Value"},
		Rows: [][]string{
			{"Total revenue", cli.FormatMoney(sum.TotalRevenue, base)},
			{"Total expenses", cli.FormatMoney(sum.TotalExpenses, base)},
			{"Total profit", cli.RenderSigned(sum.TotalProfit, cli.FormatMoney(sum.TotalProfit, base))},
			{"---"},
			{"Avg revenue/month", cli.FormatMoney(sum.AverageRevenue, base)},
			{"Avg expenses/month", cli.FormatMoney(sum.AverageExpenses, base)},
			{"Avg profit/month", cli.FormatMoney(sum.AverageProfit, base)},
			{"---"},
			{"Break-even month", breakEven},
			{"Profitable months", fmt.Sprintf("%d of %d", sum.ProfitableMonths, sum.Months)},
		},
	}
}
