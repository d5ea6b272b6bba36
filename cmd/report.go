package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/forecast"
	"github.com/clickoflow/clickoflow/internal/report"
)

var (
	flagReportRaw   bool
	flagReportOut   string
	flagReportWidth int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Forecast report as Markdown",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&flagReportRaw, "raw", false, "Print Markdown source instead of rendering it")
	reportCmd.Flags().StringVar(&flagReportOut, "out", "", "Write the Markdown to a file")
	reportCmd.Flags().IntVar(&flagReportWidth, "width", 100, "Word-wrap width for rendered output")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	rf, l, plans, err := s.rollingForecast(ctx, monthCount(s.cfg.General.HorizonMonths, forecast.DefaultHorizon))
	if err != nil {
		return err
	}
	k := s.cfg.General.CashFlowMonths
	if k <= 0 {
		k = forecast.CashFlowMonths
	}
	cash, err := s.engine.CashFlow(forecast.Compare(rf, k), l.Projects)
	if err != nil {
		return err
	}

	in := report.Input{
		Owner:    s.owner,
		Base:     s.base(),
		Forecast: rf,
		CashFlow: cash,
	}
	if d, err := s.engine.Dashboard(rf.Start, l.Projects, plans); err == nil {
		in.Dashboard = &d
	}

	doc := report.Markdown(in)
	if flagReportOut != "" {
		if err := os.WriteFile(flagReportOut, []byte(doc), 0o644); err != nil { //nolint:gosec // report is meant to be shared
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("  Wrote %s\n", flagReportOut)
		return nil
	}
	if flagReportRaw {
		fmt.Print(doc)
		return nil
	}
	out, err := report.Render(doc, flagReportWidth)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
