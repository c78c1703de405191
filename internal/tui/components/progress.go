package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/kantong/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a block progress bar followed by its percentage.
func ProgressBar(pct float64, width int, color lipgloss.Color) string {
	t := theme.Active
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// ColorForUsage colors a budget bar: green within budget, yellow past
// 80% of it, red once it is exceeded.
func ColorForUsage(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct > 1:
		return t.Red
	case pct > 0.8:
		return t.Yellow
	default:
		return t.Green
	}
}

// BudgetBar renders one labeled allocation line: a bar of actual spending
// against its target, the usage percentage and a detail string such as
// "Rp 500.000 / Rp 1.500.000". pct may exceed 1; the bar is capped but
// the percentage is not. A negative pct means there is no target.
func BudgetBar(label string, pct float64, detail string, labelW, barWidth int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	detailStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	line := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + spaceStyle.Render(" ")

	if pct < 0 {
		empty := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(strings.Repeat("░", barWidth))
		return line + empty + spaceStyle.Render(" ") + detailStyle.Render(fmt.Sprintf("%4s", "--")) +
			spaceStyle.Render("  ") + detailStyle.Render(detail)
	}

	color := ColorForUsage(pct)
	shown := pct
	if shown > 1 {
		shown = 1
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)

	return line +
		bar.ViewAs(shown) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100)) +
		spaceStyle.Render("  ") +
		detailStyle.Render(detail)
}
