// Package cmd implements the clickoflow CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/config"
	"github.com/clickoflow/clickoflow/internal/forecast"
	"github.com/clickoflow/clickoflow/internal/model"
	"github.com/clickoflow/clickoflow/internal/store"
)

var (
	flagOwner  string
	flagFrom   string
	flagMonths int
	flagConfig string
	flagQuiet  bool
)

var rootCmd = &cobra.Command{
	Use:   "clickoflow",
	Short: "Revenue and cash-flow forecasting CLI",
	Long:  "Forecast revenue, expenses and profit from your project ledger and monthly plans.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// A missing .env is fine; anything else is worth surfacing.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading .env: %w", err)
		}
		if flagConfig != "" {
			config.SetPath(flagConfig)
		}
		return nil
	},
	RunE:         runForecast,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOwner, "owner", "o", "", "Ledger owner (default from config or CLICKOFLOW_OWNER)")
	rootCmd.PersistentFlags().StringVar(&flagFrom, "from", "", "First forecast month, e.g. \"June 2025\" or 2025-06 (default current month)")
	rootCmd.PersistentFlags().IntVarP(&flagMonths, "months", "n", 0, "Number of months (default depends on the command)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/clickoflow/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// session bundles what every forecasting command needs.
type session struct {
	cfg    config.Config
	repo   *store.Repository
	engine *forecast.Engine
	owner  string
}

func (s *session) Close() {
	if s.repo != nil {
		_ = s.repo.Close()
	}
}

func openStore(ctx context.Context, cfg config.Config) (*store.Repository, error) {
	opts := store.Options{
		Driver:      config.StoreDriver(cfg),
		Path:        config.StorePath(cfg),
		DatabaseURL: config.GetDatabaseURL(cfg),
	}
	repo, err := store.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// openSession loads config, opens the ledger store and builds the engine.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	n, err := config.Normalizer(cfg)
	if err != nil {
		return nil, err
	}
	owner := resolveOwner(cfg)
	if owner == "" {
		return nil, fmt.Errorf("no owner configured; pass --owner or run `clickoflow setup`")
	}

	start := time.Now()
	repo, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Opened %s ledger in %s\n", repo.Driver(), time.Since(start).Round(time.Millisecond))
	}
	return &session{cfg: cfg, repo: repo, engine: forecast.NewEngine(n), owner: owner}, nil
}

// ledger loads the owner's ledger and its plan book.
func (s *session) ledger(ctx context.Context) (*store.Ledger, *forecast.PlanBook, error) {
	l, err := s.repo.LoadLedger(ctx, s.owner)
	if err != nil {
		return nil, nil, err
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loaded %d projects, %d plans for %s\n", len(l.Projects), len(l.Plans), s.owner)
	}
	return l, forecast.NewPlanBook(l.Settings, l.Plans), nil
}

func (s *session) base() string {
	return s.engine.Normalizer().Base()
}

func resolveOwner(cfg config.Config) string {
	if flagOwner != "" {
		return flagOwner
	}
	return config.GetOwner(cfg)
}

// startMonth returns --from, or the current month.
func startMonth() (model.Month, error) {
	if flagFrom == "" {
		return model.CurrentMonth(time.Now()), nil
	}
	return model.ParseMonth(flagFrom)
}

// monthCount returns --months, falling back to the configured value and
// then def.
func monthCount(configured, def int) int {
	if flagMonths > 0 {
		return flagMonths
	}
	if configured > 0 {
		return configured
	}
	return def
}
