package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/tui/components"
	"github.com/theirongolddev/kantong/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// usage is actual/target, or -1 when there is no target to measure against.
func usage(actual, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return -1
	}
	return actual.Div(target).InexactFloat64()
}

func (a App) renderBudgetTab(cw int) string {
	t := theme.Active
	s := a.frame.Snapshot
	r := s.Realized
	tg := s.Targets

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	const labelW = 12
	barW := innerW - labelW - 48
	if barW < 10 {
		barW = 10
	}

	rows := []struct {
		label          string
		actual, target decimal.Decimal
	}{
		{"Kebutuhan", r.Needs, tg.Needs},
		{"Gaya Hidup", r.Wants, tg.Wants},
		{"Tabungan", r.Savings, tg.Savings},
		{"Investasi", r.Investment, tg.Investment},
	}

	var bars strings.Builder
	for i, row := range rows {
		detail := cli.FormatRupiah(row.actual) + " / " + cli.FormatRupiah(row.target)
		bars.WriteString(components.BudgetBar(row.label, usage(row.actual, row.target), detail, labelW, barW))
		if i < len(rows)-1 {
			bars.WriteString("\n")
		}
	}
	if !s.Profile.HasIncome() {
		bars.WriteString("\n\n")
		bars.WriteString(mutedStyle.Render("Atur Pemasukan Bulanan di tab Pengaturan [p] lalu [e] untuk menghitung anggaran."))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Anggaran 50/30/10/10 · "+cli.FormatMonth(a.frame.At), bars.String(), cw))
	b.WriteString("\n")

	// Allocation of the configured income
	var alloc strings.Builder
	line := func(label, value string) {
		alloc.WriteString(mutedStyle.Render(fmt.Sprintf("%-22s", label)))
		alloc.WriteString(valueStyle.Render(value))
		alloc.WriteString("\n")
	}
	line("Pemasukan bulanan", cli.FormatRupiah(s.Profile.MonthlyIncome))
	line("Kebutuhan (50%)", cli.FormatRupiah(tg.Needs))
	line("Gaya Hidup (30%)", cli.FormatRupiah(tg.Wants))
	line("Tabungan (10%)", cli.FormatRupiah(tg.Savings))
	line("Investasi (10%)", cli.FormatRupiah(tg.Investment))
	alloc.WriteString(mutedStyle.Render("[n] catat transaksi"))

	b.WriteString(components.ContentCard("Alokasi Ideal", alloc.String(), cw))
	return b.String()
}
