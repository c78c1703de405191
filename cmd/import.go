package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/ledger"
	applog "github.com/theirongolddev/kantong/internal/log"
	"github.com/theirongolddev/kantong/internal/source"
	"github.com/theirongolddev/kantong/internal/store"
)

var flagImportDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file-or-dir>",
	Short: "Import transactions from JSONL exports",
	Long: `Import transactions from JSON Lines exports, one document per line:

  {"id":"...","type":"expense","category":"kebutuhan","amount":45000,"description":"Makan","timestamp":1790000000000}

A directory is scanned for *.jsonl files. Documents already present are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportDryRun, "dry-run", false, "Parse and validate without writing")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  %s", cli.RenderProgressBar(current, total, 20))
	}

	result, err := source.Load(args[0], progressFn)
	if err != nil {
		return err
	}
	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintln(os.Stderr)
	}
	if result.TotalFiles == 0 {
		fmt.Printf("\n  No .jsonl files found at %s\n", args[0])
		return nil
	}

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := applog.Component(rt.logger, applog.ComponentImport)

	var imported, duplicates, invalid int
	for _, tx := range result.Transactions {
		if flagImportDryRun {
			imported++
			continue
		}
		_, err := rt.ledger.ImportTransaction(ctx, tx)
		switch {
		case err == nil:
			imported++
		case errors.Is(err, store.ErrExists):
			duplicates++
		case ledger.IsValidation(err):
			invalid++
			logger.Warn("rejected row", applog.FieldTxID, tx.ID, applog.FieldError, err)
		default:
			return fmt.Errorf("importing %s: %w", tx.ID, err)
		}
	}

	verb := "Imported"
	if flagImportDryRun {
		verb = "Would import"
	}
	fmt.Printf("\n  %s %s transactions from %d files\n", verb, cli.FormatNumber(int64(imported)), result.ParsedFiles)
	if duplicates > 0 {
		fmt.Printf("  %d already present\n", duplicates)
	}
	if invalid > 0 {
		fmt.Printf("  %d rejected by validation\n", invalid)
	}
	if result.ParseErrors > 0 || result.Skipped > 0 {
		fmt.Printf("  %d malformed lines, %d non-transaction documents skipped\n", result.ParseErrors, result.Skipped)
	}
	if result.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %d files could not be read\n", result.FileErrors)
	}
	return nil
}
