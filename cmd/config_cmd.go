package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	owner := config.GetOwner(cfg)
	if owner == "" {
		owner = "not configured"
	}
	fmt.Printf("    Owner:             %s\n", owner)
	fmt.Printf("    Horizon:           %d months\n", cfg.General.HorizonMonths)
	fmt.Printf("    Comparison window: %d months\n", cfg.General.ComparisonMonths)
	fmt.Printf("    Cash-flow window:  %d months\n", cfg.General.CashFlowMonths)
	fmt.Println()

	fmt.Println("  [Currency]")
	rates := config.Rates(cfg)
	fmt.Printf("    Base:   %s\n", rates.Base)
	fmt.Printf("    Rates:  %s\n", strings.Join(rates.Codes(), ", "))
	if cfg.Currency.Source.Kind != "" {
		fmt.Printf("    Source: %s %s\n", cfg.Currency.Source.Kind, cfg.Currency.Source.URL)
	} else {
		fmt.Println("    Source: none (static table)")
	}
	fmt.Println()

	fmt.Println("  [Store]")
	driver := config.StoreDriver(cfg)
	fmt.Printf("    Driver: %s\n", driver)
	if driver == "sqlite" {
		fmt.Printf("    Path:   %s\n", config.StorePath(cfg))
	} else if url := config.GetDatabaseURL(cfg); url != "" {
		fmt.Printf("    URL:    %s\n", maskDatabaseURL(url))
	} else {
		fmt.Println("    URL:    not configured")
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `clickoflow setup` to reconfigure.")
	return nil
}

// maskDatabaseURL hides the password of a postgres URL.
func maskDatabaseURL(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return "****"
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":****@" + host
}
