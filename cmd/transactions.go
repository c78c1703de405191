package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/ledger"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/pipeline"
	"github.com/theirongolddev/kantong/internal/store"
)

var (
	flagAddType     string
	flagAddCategory string
	flagRmYes       bool
	flagListMonth   string
	flagListKind    string
	flagListCat     string
)

var addCmd = &cobra.Command{
	Use:   "add <amount> <description...>",
	Short: "Record a transaction",
	Example: `  kantong add 5.000.000 Gaji Oktober -t income
  kantong add 45000 Makan siang -c kebutuhan
  kantong add 1.000.000 "Setoran dana darurat" -t saving -c dana-darurat`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAdd,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a transaction",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List transactions for a month",
	RunE:    runList,
}

func init() {
	addCmd.Flags().StringVarP(&flagAddType, "type", "t", string(model.KindExpense), "Transaction type: expense, income or saving")
	addCmd.Flags().StringVarP(&flagAddCategory, "category", "c", "", "Category slug (prompted when omitted)")

	rmCmd.Flags().BoolVarP(&flagRmYes, "yes", "y", false, "Skip the confirmation prompt")

	listCmd.Flags().StringVarP(&flagListMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")
	listCmd.Flags().StringVarP(&flagListKind, "type", "t", "", "Only this transaction type")
	listCmd.Flags().StringVarP(&flagListCat, "category", "c", "", "Only this category")

	rootCmd.AddCommand(addCmd, rmCmd, listCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	amount, err := ledger.ParseAmount(args[0])
	if err != nil {
		return err
	}
	kind := model.Kind(strings.ToLower(flagAddType))
	if !kind.Valid() {
		return &ledger.ValidationError{Field: "type", Message: "Jenis transaksi tidak dikenal."}
	}

	category := model.Category(flagAddCategory)
	if category == "" {
		category, err = pickCategory(kind)
		if err != nil {
			return err
		}
	}

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	tx, err := rt.ledger.AddTransaction(ctx, ledger.NewTransaction{
		Kind:        kind,
		Category:    category,
		Amount:      amount,
		Description: strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}

	fmt.Printf("  Tersimpan %s  %s %s  %s\n",
		tx.ID, model.CategoryLabel(tx.Category), cli.FormatRupiah(tx.Amount), tx.Description)
	return nil
}

// pickCategory returns the only category for kind, or asks for one.
func pickCategory(kind model.Kind) (model.Category, error) {
	opts := model.CategoryOptions(kind)
	if len(opts) == 1 {
		return opts[0].Category, nil
	}

	var picked string
	choices := make([]huh.Option[string], 0, len(opts))
	for _, o := range opts {
		choices = append(choices, huh.NewOption(o.Label, string(o.Category)))
	}
	err := huh.NewSelect[string]().
		Title("Kategori " + model.KindLabel(kind)).
		Options(choices...).
		Value(&picked).
		Run()
	if err != nil {
		return "", err
	}
	return model.Category(picked), nil
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	if !flagRmYes {
		confirmed := false
		err := huh.NewConfirm().
			Title("Apakah Anda yakin ingin menghapus transaksi ini?").
			Affirmative("Hapus").
			Negative("Batal").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.ledger.DeleteTransaction(ctx, args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("transaksi %s tidak ditemukan", args[0])
		}
		return err
	}
	fmt.Printf("  Dihapus %s\n", args[0])
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	since, until, err := monthRange(flagListMonth, time.Now())
	if err != nil {
		return err
	}

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	txs, err := rt.store.TransactionsSince(ctx, rt.user(), since)
	if err != nil {
		return err
	}
	txs = pipeline.FilterByTime(txs, since, until)
	if flagListCat != "" {
		txs = pipeline.FilterByCategory(txs, model.Category(flagListCat))
	}
	if flagListKind != "" {
		var kept []model.Transaction
		for _, tx := range txs {
			if string(tx.Kind) == flagListKind {
				kept = append(kept, tx)
			}
		}
		txs = kept
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("TRANSAKSI  " + cli.FormatMonth(since)))
	fmt.Println()

	if len(txs) == 0 {
		fmt.Println("  Belum ada transaksi.")
		return nil
	}

	rows := make([][]string, 0, len(txs)+2)
	for _, tx := range txs {
		amount := lipgloss.NewStyle().Foreground(cli.TierColor(tierOf(tx.Kind))).Render(cli.FormatRupiah(tx.Amount))
		rows = append(rows, []string{
			tx.ID,
			cli.FormatDate(tx.OccurredAt.Local()),
			model.KindLabel(tx.Kind),
			model.CategoryLabel(tx.Category),
			cli.Truncate(tx.Description, 32),
			amount,
		})
	}
	r := pipeline.Aggregate(txs)
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"", "", "", "", "Saldo", cli.FormatRupiah(r.CashBalance)})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"ID", "Tanggal", "Jenis", "Kategori", "Deskripsi", "Jumlah"},
		Rows:     rows,
		LeftCols: 5,
	}))
	return nil
}

// monthRange parses YYYY-MM (empty means now's month) into [start, end).
func monthRange(month string, now time.Time) (time.Time, time.Time, error) {
	start := pipeline.MonthStart(now)
	if month != "" {
		t, err := time.ParseInLocation("2006-01", month, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --month %q, want YYYY-MM", month)
		}
		start = t
	}
	return start, start.AddDate(0, 1, 0), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
