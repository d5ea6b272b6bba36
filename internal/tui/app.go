// Package tui provides the interactive Bubble Tea forecast dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/clickoflow/clickoflow/internal/config"
	"github.com/clickoflow/clickoflow/internal/currency"
	"github.com/clickoflow/clickoflow/internal/forecast"
	"github.com/clickoflow/clickoflow/internal/model"
	"github.com/clickoflow/clickoflow/internal/store"
	"github.com/clickoflow/clickoflow/internal/tui/components"
	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

// LedgerSource loads an owner's projects, settings and plans.
type LedgerSource interface {
	LoadLedger(ctx context.Context, owner string) (*store.Ledger, error)
}

// Options configure the dashboard.
type Options struct {
	Owner           string
	Start           model.Month // zero means the current month at load time
	Horizon         int
	Source          LedgerSource
	Engine          *forecast.Engine
	NeedSetup       bool
	RefreshInterval time.Duration // zero disables auto-refresh
	Now             func() time.Time
}

// DataLoadedMsg is sent when a ledger load and forecast run finishes.
type DataLoadedMsg struct {
	Ledger    *store.Ledger
	Forecast  model.RollingForecast
	CashFlow  []model.CashFlowPoint
	Dashboard model.DashboardSummary
	LoadTime  time.Duration
	Err       error
}

type autoRefreshMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	data     DataLoadedMsg
	loaded   bool
	loadErr  error
	lastLoad time.Time
	loading  bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	spinner  spinner.Model
	table    table.Model
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	setupErr  error
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5

	tabOverview = 0
	tabForecast = 1
	tabCashFlow = 2
	tabSettings = 3
)

// loadConfigOrDefault loads config, returning defaults on error so the
// dashboard can always start.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new dashboard model.
func NewApp(opts Options) App {
	if opts.Horizon <= 0 {
		opts.Horizon = forecast.DefaultHorizon
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		opts:    opts,
		spinner: sp,
		table:   newForecastTable(),
		loading: !opts.NeedSetup,
	}
	if opts.NeedSetup {
		vals := SetupValuesFrom(loadConfigOrDefault())
		if opts.Engine != nil {
			vals.Base = opts.Engine.Normalizer().Base()
		}
		a.setupVals = &vals
		a.setupForm = NewSetupForm(a.setupVals, a.rates())
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion, a.spinner.Tick}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	} else {
		cmds = append(cmds, loadDataCmd(a.opts))
	}
	if a.opts.RefreshInterval > 0 {
		cmds = append(cmds, autoRefreshCmd(a.opts.RefreshInterval))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		a.resizeTable()
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabForecast {
				a.table.MoveUp(1)
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabForecast {
				a.table.MoveDown(1)
			}
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loading = false
		a.lastLoad = a.opts.Now()
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.loadErr = nil
		a.data = msg
		a.loaded = true
		a.table.SetRows(forecastRows(msg.Forecast))
		a.resizeTable()
		return a, nil

	case autoRefreshMsg:
		cmds := []tea.Cmd{autoRefreshCmd(a.opts.RefreshInterval)}
		if !a.loading && a.setupForm == nil {
			a.loading = true
			cmds = append(cmds, loadDataCmd(a.opts))
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// First-run setup intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if a.loading {
			return a, nil
		}
		a.loading = true
		return a, loadDataCmd(a.opts)
	}

	if !a.loaded {
		return a, nil
	}

	switch a.activeTab {
	case tabForecast:
		switch key {
		case "j", "k", "up", "down", "g", "G", "home", "end", "pgup", "pgdown":
			var cmd tea.Cmd
			a.table, cmd = a.table.Update(msg)
			return a, cmd
		}
	case tabSettings:
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupErr = a.saveSetupConfig()
		a.setupForm = nil
		a.loading = true
		return a, loadDataCmd(a.opts)
	case huh.StateAborted:
		a.setupForm = nil
		a.loading = true
		return a, loadDataCmd(a.opts)
	}
	return a, cmd
}

func (a App) rates() currency.Rates {
	if a.opts.Engine != nil {
		return a.opts.Engine.Normalizer().Snapshot()
	}
	return config.Rates(loadConfigOrDefault())
}

func (a App) base() string {
	if a.opts.Engine == nil {
		return ""
	}
	return a.opts.Engine.Normalizer().Base()
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		if a.loadErr != nil {
			return a.viewError()
		}
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  clickoflow needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ clickoflow"))
	b.WriteString(subtitleStyle.Render(" · Revenue Forecast"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(fmt.Sprintf(" Forecasting %d months for %s...", a.opts.Horizon, ownerLabel(a.opts.Owner))))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewError() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Could not build the forecast"))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render(a.loadErr.Error()))
	b.WriteString("\n\n")
	if errors.Is(a.loadErr, forecast.ErrSettingsNotFound) {
		b.WriteString(hintStyle.Render(fmt.Sprintf("No settings or plans for %s. Load a ledger with `clickoflow import <file.yaml>`.", ownerLabel(a.opts.Owner))))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("[r] retry  [q] quit"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o f c x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move through months / settings"},
			{"g G", "First / last month"},
		}},
		{"Actions", [][2]string{
			{"Enter", "Edit setting"},
			{"Esc", "Cancel edit"},
			{"r", "Reload ledger"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	if a.setupErr != nil {
		header += "\n" + a.viewSetupDone()
	}

	info := components.StatusInfo{
		Owner:      ownerLabel(a.opts.Owner),
		Window:     windowLabel(a.data.Forecast),
		Base:       a.base(),
		Refreshing: a.loading,
	}
	if !a.lastLoad.IsZero() {
		info.Loaded = a.opts.Now().Sub(a.lastLoad).Truncate(time.Second).String() + " ago"
	}
	if a.loadErr != nil {
		info.Err = "reload failed: " + a.loadErr.Error()
	}
	statusBar := components.RenderStatusBar(w, info)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabForecast:
		content = a.renderForecastTab(cw)
	case tabCashFlow:
		content = a.renderCashFlowTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Loading ────────────────────────────────────────────────────

func autoRefreshCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return autoRefreshMsg{}
	})
}

// loadDataCmd loads the ledger and runs the forecast, cash-flow and
// dashboard computations off the UI goroutine.
func loadDataCmd(opts Options) tea.Cmd {
	return func() tea.Msg {
		return loadData(opts)
	}
}

func loadData(opts Options) DataLoadedMsg {
	began := time.Now()
	if opts.Source == nil || opts.Engine == nil {
		return DataLoadedMsg{Err: errors.New("no ledger configured")}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ledger, err := opts.Source.LoadLedger(ctx, opts.Owner)
	if err != nil {
		return DataLoadedMsg{Err: err}
	}

	start := opts.Start
	if start.IsZero() {
		start = model.CurrentMonth(opts.Now())
	}
	plans := forecast.NewPlanBook(ledger.Settings, ledger.Plans)

	rf, err := opts.Engine.GenerateForecast(ledger.Projects, plans, start, opts.Horizon)
	if err != nil {
		return DataLoadedMsg{Err: err}
	}
	cash, err := opts.Engine.CashFlow(forecast.Compare(rf, forecast.CashFlowMonths), ledger.Projects)
	if err != nil {
		return DataLoadedMsg{Err: err}
	}
	dash, err := opts.Engine.Dashboard(start, ledger.Projects, plans)
	if err != nil {
		return DataLoadedMsg{Err: err}
	}

	return DataLoadedMsg{
		Ledger:    ledger,
		Forecast:  rf,
		CashFlow:  cash,
		Dashboard: dash,
		LoadTime:  time.Since(began),
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func ownerLabel(owner string) string {
	if owner == "" {
		return "(no owner)"
	}
	return owner
}

func windowLabel(rf model.RollingForecast) string {
	if len(rf.Months) == 0 {
		return ""
	}
	return rf.Months[0].Month.Short() + " - " + rf.Months[len(rf.Months)-1].Month.Short()
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i := range components.Tabs {
		tabW := components.TabVisualWidth(i, a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // one-column separator
	}
	return -1
}
