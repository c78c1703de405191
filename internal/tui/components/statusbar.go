package components

import (
	"strings"

	"github.com/theirongolddev/kantong/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom status bar shows.
type StatusInfo struct {
	User       string
	Updated    string // last frame time, already formatted
	Stale      bool   // some stream is showing last known data
	Refreshing bool
	Flash      string
	FlashError bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	bg := lipgloss.NewStyle().Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	left := bg.Render(" ") +
		keyStyle.Render("[?]") + dimStyle.Render("bantuan ") +
		keyStyle.Render("[n]") + dimStyle.Render("catat ") +
		keyStyle.Render("[r]") + dimStyle.Render("muat ulang ") +
		keyStyle.Render("[q]") + dimStyle.Render("keluar")

	var right string
	switch {
	case info.Flash != "":
		color := t.GreenBright
		if info.FlashError {
			color = t.Red
		}
		right = lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true).Render(info.Flash)
	case info.Refreshing:
		right = mutedStyle.Render("memuat ulang...")
	default:
		var parts []string
		if info.Stale {
			parts = append(parts, lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render("data lama"))
		}
		if info.User != "" {
			parts = append(parts, mutedStyle.Render(info.User))
		}
		if info.Updated != "" {
			parts = append(parts, dimStyle.Render(info.Updated))
		}
		right = strings.Join(parts, dimStyle.Render(" · "))
	}
	right += bg.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return left + bg.Render(strings.Repeat(" ", padding)) + right
}
