package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clickoflow/clickoflow/internal/cli"
	"github.com/clickoflow/clickoflow/internal/config"
	"github.com/clickoflow/clickoflow/internal/model"
	"github.com/clickoflow/clickoflow/internal/tui/components"
	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

const (
	settingsFieldOwner = iota
	settingsFieldHorizon
	settingsFieldTheme
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 40
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldOwner:
		ti.Placeholder = "studio"
		ti.SetValue(a.opts.Owner)
	case settingsFieldHorizon:
		ti.Placeholder = "24 (months)"
		ti.SetValue(strconv.Itoa(a.opts.Horizon))
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(theme.Active.Name)
	}

	ti.Focus()
	a.settings.input = ti
	return a, textinput.Blink
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		reload := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		if reload && !a.loading {
			a.loading = true
			return a, loadDataCmd(a.opts)
		}
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave persists the edited field and reports whether the forecast
// must be reloaded.
func (a *App) settingsSave() bool {
	cfg := loadConfigOrDefault()
	val := strings.TrimSpace(a.settings.input.Value())
	reload := false

	switch a.settings.cursor {
	case settingsFieldOwner:
		if val == "" {
			a.settings.saveErr = fmt.Errorf("owner cannot be empty")
			return false
		}
		cfg.General.Owner = val
		reload = val != a.opts.Owner
		a.opts.Owner = val
	case settingsFieldHorizon:
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			a.settings.saveErr = fmt.Errorf("horizon must be a positive number of months")
			return false
		}
		cfg.General.HorizonMonths = n
		reload = n != a.opts.Horizon
		a.opts.Horizon = n
	case settingsFieldTheme:
		found := false
		for _, t := range theme.All {
			if t.Name == val {
				found = true
				break
			}
		}
		if !found {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return false
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
		a.table.SetStyles(forecastTableStyles())
	}

	a.settings.saveErr = config.Save(cfg)
	return reload
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	fields := []struct{ label, value string }{
		{"Owner", ownerLabel(a.opts.Owner)},
		{"Horizon", fmt.Sprintf("%d months", a.opts.Horizon)},
		{"Theme", theme.Active.Name},
	}

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-12s ", f.label)))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			row := markerStyle.Render("▸ ") +
				selectedLabelStyle.Render(fmt.Sprintf("%-12s ", f.label+":")) +
				selectedStyle.Render(f.value)
			if pad := innerW - lipgloss.Width(row); pad > 0 {
				row += lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad))
			}
			form.WriteString(row)
		default:
			form.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-12s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).
			Render("Save failed: " + a.settings.saveErr.Error()))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface).Render("Saved!"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var b strings.Builder
	b.WriteString(components.ContentCard("Preferences", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Ledger settings", a.ledgerSettingsBody(), cw))
	b.WriteString("\n")

	var info strings.Builder
	kv := func(k, v string) {
		info.WriteString(labelStyle.Render(fmt.Sprintf("%-16s ", k)) + valueStyle.Render(v) + "\n")
	}
	if l := a.data.Ledger; l != nil {
		kv("Projects", cli.FormatNumber(int64(len(l.Projects))))
		kv("Monthly plans", cli.FormatNumber(int64(len(l.Plans))))
	}
	kv("Load time", fmt.Sprintf("%.2fs", a.data.LoadTime.Seconds()))
	info.WriteString(labelStyle.Render(fmt.Sprintf("%-16s ", "Config file")) + valueStyle.Render(config.ConfigPath()))
	b.WriteString(components.ContentCard("General", info.String(), cw))

	return b.String()
}

// ledgerSettingsBody lists the owner-wide settings record read-only.
func (a App) ledgerSettingsBody() string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	if a.data.Ledger == nil || a.data.Ledger.Settings == nil {
		return dimStyle.Render("No settings record; months are governed by plans only.")
	}
	s := a.data.Ledger.Settings
	base := s.BaseCurrency
	if base == "" {
		base = a.base()
	}

	var b strings.Builder
	line := func(k, v string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s ", k)) + valueStyle.Render(v) + "\n")
	}
	line("Base currency", base)
	line("Break-even", moneyLabel(s.BreakEvenTarget, base))

	if len(s.MonthlyTargets) > 0 {
		keys := make([]string, 0, len(s.MonthlyTargets))
		for k := range s.MonthlyTargets {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			mi, _ := model.ParseMonth(keys[i])
			mj, _ := model.ParseMonth(keys[j])
			return mi.Before(mj)
		})
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + " " + moneyLabel(s.MonthlyTargets[k], base)
		}
		line("Targets", strings.Join(parts, ", "))
	}

	for _, group := range []struct {
		title   string
		records []model.ExpenseRecord
	}{
		{"Overhead", s.Overhead},
		{"General expenses", s.GeneralExpenses},
	} {
		b.WriteString("\n")
		b.WriteString(labelStyle.Bold(true).Render(group.title))
		b.WriteString("\n")
		if len(group.records) == 0 {
			b.WriteString(dimStyle.Render("  none"))
			b.WriteString("\n")
			continue
		}
		for _, r := range group.records {
			state := ""
			if !r.IsActive {
				state = " (inactive)"
			}
			b.WriteString(valueStyle.Render(fmt.Sprintf("  %-24s %14s  %s%s",
				truncStr(r.Name, 24), moneyLabel(r.Amount, base), r.Frequency, state)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// moneyLabel formats m in its own currency; an empty code means base.
func moneyLabel(m model.Money, base string) string {
	code := m.Currency
	if code == "" {
		code = base
	}
	return cli.FormatMoney(m.Amount, code)
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
