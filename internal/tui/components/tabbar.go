package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Forecast", Key: 'f', KeyPos: 0},
	{Name: "Cash Flow", Key: 'c', KeyPos: 0},
	{Name: "Settings", Key: 'x', KeyPos: -1},
}

// TabVisualWidth is the rendered width of tab idx when activeIdx is the
// active tab. Inactive tabs whose key is not in the name carry a "[k]" hint.
func TabVisualWidth(idx, activeIdx int) int {
	tab := Tabs[idx]
	w := lipgloss.Width(tab.Name) + 2
	if idx != activeIdx && tab.KeyPos < 0 {
		w += 3
	}
	return w
}

// RenderTabBar renders the tab bar with the given active index. Tabs are
// separated by a single-column divider.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Background).Bold(true).Underline(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Background)
	padStyle := lipgloss.NewStyle().Background(t.Background)
	sepStyle := lipgloss.NewStyle().Foreground(t.Border).Background(t.Background)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = activeStyle.Render(tab.Name)
			continue
		}
		var body string
		if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
			body = inactiveStyle.Render(tab.Name[:tab.KeyPos]) +
				keyStyle.Render(string(tab.Name[tab.KeyPos])) +
				inactiveStyle.Render(tab.Name[tab.KeyPos+1:])
		} else {
			body = inactiveStyle.Render(tab.Name) +
				hintStyle.Render("[") + keyStyle.Render(string(tab.Key)) + hintStyle.Render("]")
		}
		parts[i] = padStyle.Render(" ") + body + padStyle.Render(" ")
	}

	bar := strings.Join(parts, sepStyle.Render("│"))
	if gap := width - lipgloss.Width(bar); gap > 0 {
		bar += padStyle.Render(strings.Repeat(" ", gap))
	}
	return bar
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
