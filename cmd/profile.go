package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/ledger"
	"github.com/theirongolddev/kantong/internal/pipeline"
)

var (
	flagProfileIncome string
	flagProfileMonths int
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show monthly income and budget targets",
	RunE:  runProfile,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set monthly income and emergency-fund months",
	Long:  "Set the profile from flags, or interactively when no flags are given.",
	RunE:  runProfileSet,
}

func init() {
	profileSetCmd.Flags().StringVar(&flagProfileIncome, "income", "", "Monthly income, e.g. 10.000.000")
	profileSetCmd.Flags().IntVar(&flagProfileMonths, "months", 0, "Emergency fund target in months of income")

	profileCmd.AddCommand(profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	p, err := rt.store.EnsureProfile(ctx, rt.user())
	if err != nil {
		return err
	}
	tg := pipeline.Allocate(p)

	fmt.Println()
	fmt.Println(cli.RenderTitle("PROFIL  " + rt.user()))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "Nilai"},
		Rows: [][]string{
			{"Pemasukan Bulanan", cli.FormatRupiah(p.MonthlyIncome)},
			{"Target Dana Darurat", fmt.Sprintf("%d bulan", p.EmergencyMonths)},
			{"---"},
			{"Kebutuhan (50%)", cli.FormatRupiah(tg.Needs)},
			{"Gaya Hidup (30%)", cli.FormatRupiah(tg.Wants)},
			{"Tabungan (10%)", cli.FormatRupiah(tg.Savings)},
			{"Investasi (10%)", cli.FormatRupiah(tg.Investment)},
			{"---"},
			{"Dana Darurat", cli.FormatRupiah(tg.EmergencyLifetime)},
		},
	}))

	if !p.HasIncome() {
		fmt.Println("\n  Run `kantong profile set` to configure your income.")
	}
	return nil
}

func runProfileSet(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	current, err := rt.store.EnsureProfile(ctx, rt.user())
	if err != nil {
		return err
	}

	incomeText := flagProfileIncome
	months := flagProfileMonths
	if incomeText == "" && months == 0 {
		incomeText, months, err = promptProfile(current.MonthlyIncome.String(), current.EmergencyMonths)
		if err != nil {
			return err
		}
	}
	if incomeText == "" {
		incomeText = current.MonthlyIncome.String()
	}
	if months == 0 {
		months = current.EmergencyMonths
	}

	income, err := ledger.ParseAmount(incomeText)
	if err != nil {
		return err
	}
	p, err := rt.ledger.SaveProfile(ctx, income, months)
	if err != nil {
		return err
	}

	tg := pipeline.Allocate(p)
	fmt.Printf("  Profil disimpan: %s/bulan, dana darurat %d bulan (%s)\n",
		cli.FormatRupiah(p.MonthlyIncome), p.EmergencyMonths, cli.FormatRupiah(tg.EmergencyLifetime))
	return nil
}

func promptProfile(income string, months int) (string, int, error) {
	if income == "0" {
		income = ""
	}
	monthsText := strconv.Itoa(months)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Pemasukan Bulanan (Rp)").
				Placeholder("10.000.000").
				Value(&income).
				Validate(func(s string) error {
					_, err := ledger.ParseAmount(s)
					return err
				}),
			huh.NewInput().
				Title("Target Dana Darurat (bulan)").
				Value(&monthsText).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(s); err != nil || n < 1 {
						return errors.New("Target Dana Darurat harus minimal 1 bulan.")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", 0, err
	}

	n, _ := strconv.Atoi(monthsText)
	return income, n, nil
}
