package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/collator"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/pipeline"
	"github.com/theirongolddev/kantong/internal/status"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Dashboard for the current month",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	frame, err := rt.loadFrame(ctx)
	if err != nil {
		return err
	}
	renderDashboard(frame)
	return nil
}

func renderDashboard(f collator.Frame) {
	s := f.Snapshot
	r := s.Realized
	tg := s.Targets

	fmt.Println()
	fmt.Println(cli.RenderTitle("KANTONG  " + cli.FormatMonth(f.At)))
	fmt.Println()

	// Anti-FOMO card
	fmt.Println(cli.RenderAlert(cli.Alert{
		Label: cli.RiskLevel(f.Tiers.Risk),
		Body:  "Skor " + cli.RiskScore(s, f.Tiers.Risk),
		Tier:  f.Tiers.Risk,
	}))
	fmt.Printf("  %s\n\n", cli.RiskMessage(s, f.Tiers.Risk))

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Arus Kas",
		Headers: []string{"", "Bulan Ini"},
		Rows: [][]string{
			{"Pemasukan", cli.FormatRupiah(r.Income)},
			{"Pengeluaran", cli.FormatRupiah(r.Expense)},
			{"---"},
			{"Saldo", cli.FormatRupiah(r.CashBalance)},
		},
	}))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Anggaran 50/30/10/10",
		Headers: []string{"Kategori", "Ideal", "Realisasi", "Pemakaian"},
		Rows: [][]string{
			budgetRow("Kebutuhan", r.Needs, tg.Needs),
			budgetRow("Gaya Hidup", r.Wants, tg.Wants),
			budgetRow("Tabungan", r.Savings, tg.Savings),
			budgetRow("Investasi", r.Investment, tg.Investment),
		},
	}))
	fmt.Println()

	fmt.Println("  " + cli.RenderBudgetBar(s.AllTimeEmergencyTotal, tg.EmergencyLifetime, 30) +
		fmt.Sprintf("  Dana Darurat %s / %s", cli.FormatRupiah(s.AllTimeEmergencyTotal), cli.FormatRupiah(tg.EmergencyLifetime)))
	fmt.Println()

	fmt.Println(cli.RenderAlert(cli.EmergencyAlert(s, f.Tiers.Emergency)))
	fmt.Println(cli.RenderAlert(cli.LifestyleAlert(s, f.Tiers.Banner)))
	fmt.Println()

	notes := cli.Analysis(s)
	if len(notes) == 0 {
		fmt.Printf("  %s\n", cli.AnalysisPlaceholder)
	}
	for _, n := range notes {
		fmt.Println(cli.RenderNote(n))
	}

	if spark := dailySpark(f); spark != "" {
		fmt.Printf("\n  Pengeluaran harian  %s\n", spark)
	}
	if r.Unclassified > 0 {
		fmt.Printf("\n  %d transaksi dengan kategori tidak dikenal tidak masuk anggaran.\n", r.Unclassified)
	}

	printStaleStreams(f)
}

func budgetRow(label string, actual, target decimal.Decimal) []string {
	return []string{label, cli.FormatRupiah(target), cli.FormatRupiah(actual), cli.RenderBudgetBar(actual, target, 12)}
}

func dailySpark(f collator.Frame) string {
	if len(f.Transactions) == 0 {
		return ""
	}
	since := pipeline.MonthStart(f.At)
	days := pipeline.AggregateDays(f.Transactions, since, f.At.Add(1))
	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = d.Expense.InexactFloat64()
	}
	return cli.RenderSparkline(values)
}

func printStaleStreams(f collator.Frame) {
	var stale []string
	for s, h := range f.Streams {
		if h.Stale() {
			stale = append(stale, fmt.Sprintf("%s (%s)", s, h.LastError))
		}
	}
	sort.Strings(stale)
	for _, s := range stale {
		fmt.Fprintf(os.Stderr, "\n  Warning: stream %s could not be refreshed; showing last known data\n", s)
	}
}

// tierOf is used by list/profile output to color a kind's amount.
func tierOf(k model.Kind) status.Tier {
	switch k {
	case model.KindIncome:
		return status.Safe
	case model.KindExpense:
		return status.Critical
	default:
		return status.Progress
	}
}
