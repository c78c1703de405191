package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/pipeline"
)

var flagDailyMonth string

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily cash flow table for a month",
	RunE:  runDaily,
}

func init() {
	dailyCmd.Flags().StringVarP(&flagDailyMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")
	rootCmd.AddCommand(dailyCmd)
}

var weekdays = []string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}

func runDaily(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	now := time.Now()
	since, until, err := monthRange(flagDailyMonth, now)
	if err != nil {
		return err
	}
	if until.After(now) {
		until = now
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
	days := pipeline.AggregateDays(txs, since, until)

	if len(days) == 0 {
		fmt.Println("\n  No data for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("HARIAN  " + cli.FormatMonth(since)))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			weekdays[d.Date.Weekday()],
			cli.FormatNumber(int64(d.Count)),
			cli.FormatRupiah(d.Income),
			cli.FormatRupiah(d.Expense),
			cli.FormatRupiah(d.Saving),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Tanggal", "Hari", "Transaksi", "Pemasukan", "Pengeluaran", "Tabungan"},
		Rows:     rows,
		LeftCols: 2,
	}))

	return nil
}
