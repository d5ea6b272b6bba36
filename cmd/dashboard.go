package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/model"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard [month]",
	Short: "Cash-basis summary of a month (default current month)",
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(_ *cobra.Command, args []string) error {
	m, err := startMonth()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		if m, err = model.ParseMonth(strings.Join(args, " ")); err != nil {
			return err
		}
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
	d, err := s.engine.Dashboard(m, l.Projects, plans)
	if err != nil {
		return explain(err)
	}
	base := s.base()

	fmt.Println()
	fmt.Println(cli.RenderTitle("DASHBOARD  " + strings.ToUpper(m.String())))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Projects", cli.FormatNumber(int64(d.Projects))},
			{"---"},
			{"Deposits received", cli.FormatMoney(d.DepositsReceived, base)},
			{"Payments due", cli.FormatMoney(d.PaymentsDue, base)},
			{"Cash revenue", cli.FormatMoney(d.CashRevenue, base)},
			{"Planned revenue", cli.FormatMoney(d.PlannedRevenue, base)},
			{"---"},
			{"Expenses", cli.FormatMoney(d.Expenses, base)},
			{"Profit", cli.RenderSigned(d.Profit, cli.FormatMoney(d.Profit, base))},
			{"---"},
			{"Target", cli.FormatMoney(d.Target, base)},
			{"Achievement", cli.RenderProgressBar(d.TargetAchievement.InexactFloat64(), 20)},
		},
	}))

	if d.Projects > 0 {
		t := cli.Table{Headers: []string{"Status", "Projects"}}
		for _, st := range model.ProjectStatuses {
			if n := d.StatusCounts[st]; n > 0 {
				t.Rows = append(t.Rows, []string{string(st), cli.FormatNumber(int64(n))})
			}
		}
		fmt.Print(cli.RenderTable(t))
	}
	return nil
}
