package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/config"
	"github.com/clickoflow/clickoflow/internal/currency"
)

var flagRatesSave bool

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show the exchange-rate table",
	RunE:  runRatesShow,
}

var ratesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the exchange-rate table",
	RunE:  runRatesShow,
}

var ratesConvertCmd = &cobra.Command{
	Use:   "convert <amount> <from> <to>",
	Short: "Convert an amount between two currencies",
	Args:  cobra.ExactArgs(3),
	RunE:  runRatesConvert,
}

var ratesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch rates from the configured source",
	RunE:  runRatesRefresh,
}

func init() {
	ratesRefreshCmd.Flags().BoolVar(&flagRatesSave, "save", true, "Write the fetched table to the config file")

	ratesCmd.AddCommand(ratesShowCmd)
	ratesCmd.AddCommand(ratesConvertCmd)
	ratesCmd.AddCommand(ratesRefreshCmd)
	rootCmd.AddCommand(ratesCmd)
}

func runRatesShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	n, err := config.Normalizer(cfg)
	if err != nil {
		return err
	}
	printRates(n.Snapshot())
	return nil
}

func printRates(r currency.Rates) {
	t := cli.Table{
		Title:   "Units per 1 " + r.Base,
		Headers: []string{"Currency", "Rate", "1 unit in " + r.Base},
	}
	for _, code := range r.Codes() {
		rate := r.Table[code]
		t.Rows = append(t.Rows, []string{code, rate.String(), decimal.NewFromInt(1).Div(rate).StringFixed(4)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(t))
}

func runRatesConvert(_ *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	n, err := config.Normalizer(cfg)
	if err != nil {
		return err
	}
	from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])
	out, err := n.Convert(amount, from, to)
	if err != nil {
		return err
	}
	fmt.Printf("  %s = %s\n", cli.FormatMoney(amount, from), cli.FormatMoney(out, to))
	return nil
}

func runRatesRefresh(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	src, err := config.RateSource(cfg)
	if err != nil {
		return err
	}
	if src == nil {
		return errors.New("no rate source configured; set [currency.source] in " + config.ConfigPath())
	}
	n, err := config.Normalizer(cfg)
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching rates...\n")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := n.Refresh(ctx, src); err != nil {
		return err
	}

	fresh := n.Snapshot()
	printRates(fresh)
	if flagRatesSave {
		config.SetRates(&cfg, fresh)
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("  Saved %d rates to %s\n", len(fresh.Table), config.ConfigPath())
	}
	return nil
}
