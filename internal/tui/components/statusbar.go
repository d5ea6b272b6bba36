package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports about the loaded forecast.
type StatusInfo struct {
	Owner      string
	Window     string // e.g. "Jun 2025 - May 2027"
	Base       string
	Loaded     string // age of the data, e.g. "12s ago"
	Refreshing bool
	Err        string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	barStyle := lipgloss.NewStyle().Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	left := barStyle.Render(" ") +
		keyStyle.Render("[r]") + textStyle.Render("eload  ") +
		keyStyle.Render("[?]") + textStyle.Render("help  ") +
		keyStyle.Render("[q]") + textStyle.Render("uit")

	var fields []string
	if info.Owner != "" {
		fields = append(fields, info.Owner)
	}
	if info.Window != "" {
		fields = append(fields, info.Window)
	}
	if info.Base != "" {
		fields = append(fields, info.Base)
	}
	switch {
	case info.Refreshing:
		fields = append(fields, "refreshing...")
	case info.Loaded != "":
		fields = append(fields, "loaded "+info.Loaded)
	}

	right := textStyle.Render(strings.Join(fields, " · ") + " ")
	if info.Err != "" {
		right = errStyle.Render(info.Err+" ") + right
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + barStyle.Render(strings.Repeat(" ", padding)) + right
}
