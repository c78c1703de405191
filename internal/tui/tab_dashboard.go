package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/pipeline"
	"github.com/theirongolddev/kantong/internal/status"
	"github.com/theirongolddev/kantong/internal/tui/components"
	"github.com/theirongolddev/kantong/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func (a App) renderDashboardTab(cw int) string {
	t := theme.Active
	f := a.frame
	s := f.Snapshot
	r := s.Realized
	var b strings.Builder

	// Row 1: cash flow and the headline score
	balanceColor := t.GreenBright
	if r.CashBalance.IsNegative() {
		balanceColor = t.Red
	}
	metrics := []components.Metric{
		{Label: "Pemasukan", Value: cli.FormatRupiah(r.Income), Delta: cli.FormatMonth(f.At), Accent: t.GreenBright},
		{Label: "Pengeluaran", Value: cli.FormatRupiah(r.Expense), Delta: fmt.Sprintf("%d transaksi", s.TransactionCount), Accent: t.Orange},
		{Label: "Saldo Kas", Value: cli.FormatSignedRupiah(r.CashBalance), Delta: "pemasukan - pengeluaran", Accent: balanceColor},
		{Label: "Skor Risiko", Value: cli.RiskScore(s, f.Tiers.Risk), Delta: cli.RiskLevel(f.Tiers.Risk), Accent: theme.TierColor(f.Tiers.Risk)},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: anti-FOMO card and quick alerts
	riskCard := func(w int) string {
		return components.AlertCard(
			"Anti-FOMO · "+cli.RiskLevel(f.Tiers.Risk),
			cli.RiskMessage(s, f.Tiers.Risk),
			theme.TierColor(f.Tiers.Risk), w)
	}
	alerts := []cli.Alert{
		cli.EmergencyAlert(s, f.Tiers.Emergency),
		cli.LifestyleAlert(s, f.Tiers.Banner),
	}
	alertCard := func(al cli.Alert, w int) string {
		return components.AlertCard(al.Label, al.Body, theme.TierColor(al.Tier), w)
	}

	if a.isCompactLayout() {
		b.WriteString(riskCard(cw))
		b.WriteString("\n")
		for _, al := range alerts {
			b.WriteString(alertCard(al, cw))
			b.WriteString("\n")
		}
	} else {
		thirds := components.LayoutRow(cw, 3)
		b.WriteString(components.CardRow([]string{
			riskCard(thirds[0]),
			alertCard(alerts[0], thirds[1]),
			alertCard(alerts[1], thirds[2]),
		}))
		b.WriteString("\n")
	}

	// Row 3: analysis
	b.WriteString(components.ContentCard("Analisis Keuangan", a.analysisBody(), cw))
	b.WriteString("\n")

	// Row 4: daily spending this month against the daily needs+wants budget
	if len(f.Transactions) > 0 {
		month := pipeline.MonthStart(f.At)
		days := pipeline.AggregateDays(f.Transactions, month, f.At.Add(1))
		cols := make([]components.Column, len(days))
		for i, d := range days {
			cols[i] = components.Column{Label: strconv.Itoa(d.Date.Day()), Value: d.Expense.InexactFloat64()}
		}
		daysInMonth := month.AddDate(0, 1, -1).Day()
		daily := s.Targets.Needs.Add(s.Targets.Wants).Div(decimal.NewFromInt(int64(daysInMonth)))

		title := "Pengeluaran Harian · " + cli.FormatMonth(f.At)
		if daily.IsPositive() {
			title += " · batas " + cli.FormatRupiah(daily) + "/hari"
		}
		chartH := 8
		if a.isCompactLayout() {
			chartH = 6
		}
		b.WriteString(components.ContentCard(title,
			components.ColumnChart(cols, daily.InexactFloat64(), t.Accent, t.Red, components.CardInnerWidth(cw), chartH),
			cw,
		))
	}

	return b.String()
}

func (a App) analysisBody() string {
	t := theme.Active
	s := a.frame.Snapshot

	notes := cli.Analysis(s)
	if len(notes) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(cli.AnalysisPlaceholder)
	}

	lines := make([]string, 0, len(notes)+1)
	for _, n := range notes {
		color := t.TextPrimary
		switch n.Tone {
		case status.Safe:
			color = t.GreenBright
		case status.Critical:
			color = t.Red
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render("• "+n.Text))
	}
	if u := s.Realized.Unclassified; u > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
			Render(fmt.Sprintf("• %d transaksi dengan kategori tidak dikenal tidak masuk anggaran.", u)))
	}
	return strings.Join(lines, "\n")
}
