package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/collator"
	"github.com/theirongolddev/kantong/internal/config"
	"github.com/theirongolddev/kantong/internal/tui/components"
	"github.com/theirongolddev/kantong/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// settingsState tracks the settings tab state.
type settingsState struct {
	saved   bool  // flash "saved" after a theme change
	saveErr error // non-nil if last save failed
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "e", "enter":
		m, cmd := a.openProfileForm()
		return m, cmd, true
	case "T":
		a.cycleTheme()
		return a, nil, true
	}
	return a, nil, false
}

// cycleTheme switches to the next theme and persists the choice.
func (a *App) cycleTheme() {
	next := theme.Next(theme.Active.Name)
	theme.SetActive(next.Name)
	a.spinner.Style = a.spinner.Style.Foreground(next.Accent).Background(next.Surface)

	cfg := loadConfigOrDefault()
	cfg.Appearance.Theme = next.Name
	a.settings.saveErr = config.Save(cfg)
	a.settings.saved = a.settings.saveErr == nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	s := a.frame.Snapshot

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	row := func(b *strings.Builder, label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-22s ", label+":")))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	var profile strings.Builder
	income := "(belum diatur)"
	if s.Profile.HasIncome() {
		income = cli.FormatRupiah(s.Profile.MonthlyIncome)
	}
	row(&profile, "Pemasukan Bulanan", income)
	row(&profile, "Target Dana Darurat", strconv.Itoa(s.Profile.EmergencyMonths)+" bulan")
	row(&profile, "Target Dana Darurat (Rp)", cli.FormatRupiah(s.Targets.EmergencyLifetime))
	profile.WriteString(accentStyle.Render("[e] ubah profil"))

	var app strings.Builder
	row(&app, "Pengguna", a.user)
	row(&app, "Penyimpanan", a.backend)
	row(&app, "Tema", t.Name)
	row(&app, "Berkas konfigurasi", config.ConfigPath())
	switch {
	case a.settings.saveErr != nil:
		app.WriteString(warnStyle.Render(fmt.Sprintf("Gagal menyimpan: %s", a.settings.saveErr)))
		app.WriteString("\n")
	case a.settings.saved:
		app.WriteString(greenStyle.Render("Tersimpan!"))
		app.WriteString("\n")
	}
	app.WriteString(accentStyle.Render("[T] ganti tema"))

	var streams strings.Builder
	for i, st := range collator.Streams {
		h := a.frame.Streams[st]
		state := greenStyle.Render("ok")
		if h.Stale() {
			state = warnStyle.Render(fmt.Sprintf("gagal %dx: %s", h.Failures, h.LastError))
		}
		last := "-"
		if !h.LastDelivery.IsZero() {
			last = cli.FormatDate(h.LastDelivery.Local())
		}
		streams.WriteString(labelStyle.Render(fmt.Sprintf("%-14s ", st)))
		streams.WriteString(valueStyle.Render(fmt.Sprintf("%-19s ", last)))
		streams.WriteString(state)
		if i < len(collator.Streams)-1 {
			streams.WriteString("\n")
		}
	}

	var b strings.Builder
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Profil", profile.String(), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Aplikasi", app.String(), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Profil", profile.String(), halves[0]),
			components.ContentCard("Aplikasi", app.String(), halves[1]),
		}))
	}
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Sumber Data", streams.String(), cw))

	return b.String()
}
