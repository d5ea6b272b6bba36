package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/clickoflow/clickoflow/internal/tui/theme"
)

// ColorForAchievement grades a target achievement percentage (0-100 scale,
// may exceed 100).
func ColorForAchievement(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 100:
		return t.Green
	case pct >= 75:
		return t.Yellow
	case pct >= 40:
		return t.Orange
	default:
		return t.Red
	}
}

// TargetBar renders a labeled bar for a target achievement percentage. The
// bar saturates at 100 while the printed figure does not.
func TargetBar(label string, pct float64, labelW, barWidth int) string {
	t := theme.Active
	color := ColorForAchievement(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(clampUnit(pct/100)) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%4.0f%%", pct))
}

func clampUnit(v float64) float64 {
	return min(max(v, 0), 1)
}
