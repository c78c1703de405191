package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/status"
	"github.com/theirongolddev/kantong/internal/tui/components"
	"github.com/theirongolddev/kantong/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderSavingsTab(cw int) string {
	t := theme.Active
	f := a.frame
	s := f.Snapshot
	r := s.Realized
	tier := f.Tiers.Emergency

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	tierStyle := lipgloss.NewStyle().Foreground(theme.TierColor(tier)).Background(t.Surface).Bold(true)

	innerW := components.CardInnerWidth(cw)
	barW := innerW - 8
	if barW > 60 {
		barW = 60
	}

	var fund strings.Builder
	if tier == status.DataMissing {
		fund.WriteString(mutedStyle.Render(cli.EmergencyStatus(tier)))
	} else {
		fund.WriteString(components.ProgressBar(s.EmergencyRatio/100, barW, theme.TierColor(tier)))
		fund.WriteString("\n\n")
		fund.WriteString(mutedStyle.Render("Terkumpul    "))
		fund.WriteString(valueStyle.Render(cli.FormatRupiah(s.AllTimeEmergencyTotal)))
		fund.WriteString("\n")
		fund.WriteString(mutedStyle.Render("Target       "))
		fund.WriteString(valueStyle.Render(fmt.Sprintf("%s (%d bulan pemasukan)",
			cli.FormatRupiah(s.Targets.EmergencyLifetime), s.Profile.EmergencyMonths)))
		fund.WriteString("\n")
		fund.WriteString(mutedStyle.Render("Bulan ini    "))
		fund.WriteString(valueStyle.Render(cli.FormatRupiah(r.EmergencyThisPeriod)))
		fund.WriteString("\n\n")
		fund.WriteString(tierStyle.Render(cli.EmergencyStatus(tier)))
	}

	var b strings.Builder
	b.WriteString(components.AlertCard("Dana Darurat", fund.String(), theme.TierColor(tier), cw))
	b.WriteString("\n")

	// Savings and investment this month; exceeding the target is good here.
	var month strings.Builder
	for i, row := range []struct {
		label string
		pct   float64
		text  string
	}{
		{"Tabungan", usage(r.Savings, s.Targets.Savings), cli.FormatRupiah(r.Savings) + " / " + cli.FormatRupiah(s.Targets.Savings)},
		{"Investasi", usage(r.Investment, s.Targets.Investment), cli.FormatRupiah(r.Investment) + " / " + cli.FormatRupiah(s.Targets.Investment)},
	} {
		month.WriteString(mutedStyle.Render(fmt.Sprintf("%-10s ", row.label)))
		if row.pct < 0 {
			month.WriteString(mutedStyle.Render("--  " + row.text))
		} else {
			pct := row.pct
			if pct > 1 {
				pct = 1
			}
			month.WriteString(components.ProgressBar(pct, 20, t.Green))
			month.WriteString(mutedStyle.Render("  " + row.text))
		}
		if i == 0 {
			month.WriteString("\n")
		}
	}

	b.WriteString(components.ContentCard("Tabungan & Investasi · "+cli.FormatMonth(f.At), month.String(), cw))
	b.WriteString("\n")

	// Anti-FOMO tips
	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	bodyStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var tips strings.Builder
	tips.WriteString(bodyStyle.Render(cli.TipsIntro))
	for i, tip := range cli.Tips() {
		tips.WriteString("\n")
		tips.WriteString(titleStyle.Render(fmt.Sprintf("%d. %s", i+1, tip.Title)))
		tips.WriteString(bodyStyle.Render(" " + tip.Body))
	}
	b.WriteString(components.ContentCard(cli.TipsTitle, tips.String(), cw))

	return b.String()
}
