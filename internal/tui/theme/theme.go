// Package theme defines color themes for the kantong TUI dashboard.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/kantong/internal/status"
)

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name  string
	Title string // shown in the setup wizard

	Background    lipgloss.Color // Main app background
	Surface       lipgloss.Color // Card/panel backgrounds
	SurfaceHover  lipgloss.Color // Active tab
	SurfaceBright lipgloss.Color // Selected row
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // Focused cards and forms
	TextDim       lipgloss.Color // Hints, axes, empty bars
	TextMuted     lipgloss.Color // Labels
	TextPrimary   lipgloss.Color
	Accent        lipgloss.Color
	AccentBright  lipgloss.Color

	// Cash-flow colors.
	Green       lipgloss.Color
	GreenBright lipgloss.Color // income, positive balance
	Orange      lipgloss.Color // expense
	BlueBright  lipgloss.Color // saving
	Cyan        lipgloss.Color
	Yellow      lipgloss.Color
	Red         lipgloss.Color

	// Tier colors for risk, banner and emergency-fund alerts.
	Safe    lipgloss.Color
	Caution lipgloss.Color
	Danger  lipgloss.Color
}

// Active is the currently selected theme.
var Active = Gelap

// Gelap is the default dark theme: deep teal surfaces with a gold accent.
var Gelap = Theme{
	Name:          "kantong-gelap",
	Title:         "Gelap",
	Background:    lipgloss.Color("#0E1416"),
	Surface:       lipgloss.Color("#162024"),
	SurfaceHover:  lipgloss.Color("#1F2D32"),
	SurfaceBright: lipgloss.Color("#2A3B41"),
	Border:        lipgloss.Color("#34484F"),
	BorderAccent:  lipgloss.Color("#D9A441"),
	TextDim:       lipgloss.Color("#5C7078"),
	TextMuted:     lipgloss.Color("#93A5AB"),
	TextPrimary:   lipgloss.Color("#ECF2F0"),
	Accent:        lipgloss.Color("#D9A441"),
	AccentBright:  lipgloss.Color("#F2C46B"),
	Green:         lipgloss.Color("#4E9F6E"),
	GreenBright:   lipgloss.Color("#6CC48E"),
	Orange:        lipgloss.Color("#E08A4B"),
	BlueBright:    lipgloss.Color("#6FAEDB"),
	Cyan:          lipgloss.Color("#4FB8B0"),
	Yellow:        lipgloss.Color("#E3C04F"),
	Red:           lipgloss.Color("#E0605A"),
	Safe:          lipgloss.Color("#6CC48E"),
	Caution:       lipgloss.Color("#E3C04F"),
	Danger:        lipgloss.Color("#E0605A"),
}

// Terang is a light theme for bright terminals.
var Terang = Theme{
	Name:          "kantong-terang",
	Title:         "Terang",
	Background:    lipgloss.Color("#F7F4EC"),
	Surface:       lipgloss.Color("#FFFDF7"),
	SurfaceHover:  lipgloss.Color("#EFE9DA"),
	SurfaceBright: lipgloss.Color("#E4DCC7"),
	Border:        lipgloss.Color("#CFC5AE"),
	BorderAccent:  lipgloss.Color("#9C6B12"),
	TextDim:       lipgloss.Color("#A39A86"),
	TextMuted:     lipgloss.Color("#6D6657"),
	TextPrimary:   lipgloss.Color("#1F2326"),
	Accent:        lipgloss.Color("#9C6B12"),
	AccentBright:  lipgloss.Color("#B9821C"),
	Green:         lipgloss.Color("#2F7A4B"),
	GreenBright:   lipgloss.Color("#23894C"),
	Orange:        lipgloss.Color("#B85A1E"),
	BlueBright:    lipgloss.Color("#2B6CA3"),
	Cyan:          lipgloss.Color("#1F7F79"),
	Yellow:        lipgloss.Color("#A37B00"),
	Red:           lipgloss.Color("#B83A34"),
	Safe:          lipgloss.Color("#23894C"),
	Caution:       lipgloss.Color("#A37B00"),
	Danger:        lipgloss.Color("#B83A34"),
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:          "terminal",
	Title:         "Terminal (16 warna)",
	Background:    lipgloss.Color("0"),
	Surface:       lipgloss.Color("0"),
	SurfaceHover:  lipgloss.Color("8"),
	SurfaceBright: lipgloss.Color("8"),
	Border:        lipgloss.Color("8"),
	BorderAccent:  lipgloss.Color("3"),
	TextDim:       lipgloss.Color("8"),
	TextMuted:     lipgloss.Color("7"),
	TextPrimary:   lipgloss.Color("15"),
	Accent:        lipgloss.Color("3"),
	AccentBright:  lipgloss.Color("11"),
	Green:         lipgloss.Color("2"),
	GreenBright:   lipgloss.Color("10"),
	Orange:        lipgloss.Color("3"),
	BlueBright:    lipgloss.Color("12"),
	Cyan:          lipgloss.Color("6"),
	Yellow:        lipgloss.Color("11"),
	Red:           lipgloss.Color("9"),
	Safe:          lipgloss.Color("10"),
	Caution:       lipgloss.Color("11"),
	Danger:        lipgloss.Color("9"),
}

// All available themes, in cycling order.
var All = []Theme{Gelap, Terang, Terminal}

// ByName returns a theme by its name, defaulting to Gelap.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return Gelap
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Next returns the theme after name, wrapping around.
func Next(name string) Theme {
	for i, t := range All {
		if t.Name == name {
			return All[(i+1)%len(All)]
		}
	}
	return All[0]
}

// TierColor maps a status tier to the active theme's tier colors.
// Progress toward the emergency fund is a caution, not a danger.
func TierColor(tier status.Tier) lipgloss.Color {
	switch tier {
	case status.Critical:
		return Active.Danger
	case status.Warning, status.Progress:
		return Active.Caution
	case status.Safe, status.Achieved:
		return Active.Safe
	default:
		return Active.TextMuted
	}
}
