package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/clickoflow/clickoflow/internal/config"
	"github.com/clickoflow/clickoflow/internal/currency"
	"github.com/clickoflow/clickoflow/internal/forecast"
	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

// SetupValues holds the answers of the first-run form.
type SetupValues struct {
	Owner   string
	Base    string
	Horizon int
	Theme   string
}

// SetupValuesFrom seeds the form with the current configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Owner:   config.GetOwner(cfg),
		Base:    config.GetBaseCurrency(cfg),
		Horizon: cfg.General.HorizonMonths,
		Theme:   cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the setup form writing into vals. Base currency
// choices are the codes of the configured rate table.
func NewSetupForm(vals *SetupValues, rates currency.Rates) *huh.Form {
	codes := rates.Codes()
	if vals.Base == "" && len(codes) > 0 {
		vals.Base = codes[0]
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Owner").
				Description("Whose ledger to forecast. Matches the owner in imported files.").
				Placeholder("studio").
				Value(&vals.Owner).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("owner is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Base currency").
				Description("Every forecast amount is reported in this currency.").
				Options(huh.NewOptions(codes...)...).
				Value(&vals.Base),
			huh.NewSelect[int]().
				Title("Forecast horizon").
				Options(
					huh.NewOption("12 months", 12),
					huh.NewOption("24 months", 24),
					huh.NewOption("36 months", 36),
				).
				Value(&vals.Horizon),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		).Title("clickoflow setup"),
	)
}

// ApplySetup copies the form answers into cfg.
func ApplySetup(cfg *config.Config, vals SetupValues) {
	cfg.General.Owner = strings.TrimSpace(vals.Owner)
	if vals.Base != "" {
		cfg.Currency.Base = strings.ToUpper(vals.Base)
	}
	if vals.Horizon > 0 {
		cfg.General.HorizonMonths = vals.Horizon
	}
	if vals.Theme != "" {
		cfg.Appearance.Theme = vals.Theme
	}
}

func (a *App) saveSetupConfig() error {
	cfg := loadConfigOrDefault()
	ApplySetup(&cfg, *a.setupVals)
	theme.SetActive(cfg.Appearance.Theme)
	a.opts.Owner = cfg.General.Owner
	if cfg.General.HorizonMonths > 0 {
		a.opts.Horizon = cfg.General.HorizonMonths
	}
	if n, err := config.Normalizer(cfg); err == nil {
		a.opts.Engine = forecast.NewEngine(n)
	}
	return config.Save(cfg)
}

func (a App) viewSetupDone() string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Background)
	if a.setupErr == nil {
		return ""
	}
	return style.Render("Could not save config: " + a.setupErr.Error() + " (settings apply to this session only)")
}
