package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/config"
	"github.com/clickoflow/clickoflow/internal/forecast"
	"github.com/clickoflow/clickoflow/internal/model"
	"github.com/clickoflow/clickoflow/internal/tui"
	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

var flagTUIRefresh time.Duration

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().DurationVar(&flagTUIRefresh, "refresh", time.Minute, "Auto-refresh interval (0 disables)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	n, err := config.Normalizer(cfg)
	if err != nil {
		return err
	}
	var start model.Month
	if flagFrom != "" {
		if start, err = model.ParseMonth(flagFrom); err != nil {
			return err
		}
	}

	ctx := context.Background()
	repo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	app := tui.NewApp(tui.Options{
		Owner:           resolveOwner(cfg),
		Start:           start,
		Horizon:         monthCount(cfg.General.HorizonMonths, forecast.DefaultHorizon),
		Source:          repo,
		Engine:          forecast.NewEngine(n),
		NeedSetup:       !config.Exists(),
		RefreshInterval: flagTUIRefresh,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
