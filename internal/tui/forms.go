package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/ledger"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// txValues backs the add-transaction form. Forms hold a pointer to it so
// the values survive App being copied between updates.
type txValues struct {
	kind        string
	category    string
	amount      string
	description string
}

type profileValues struct {
	income string
	months string
}

func newTransactionForm(v *txValues) *huh.Form {
	kinds := make([]huh.Option[string], 0, len(model.Kinds))
	for _, k := range model.Kinds {
		kinds = append(kinds, huh.NewOption(model.KindLabel(k), string(k)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Jenis Transaksi").
				Options(kinds...).
				Value(&v.kind),
			huh.NewSelect[string]().
				Title("Kategori").
				OptionsFunc(func() []huh.Option[string] {
					return categoryChoices(model.Kind(v.kind))
				}, &v.kind).
				Value(&v.category),
			huh.NewInput().
				Title("Jumlah (Rp)").
				Placeholder("50.000").
				Value(&v.amount).
				Validate(validateAmount),
			huh.NewInput().
				Title("Deskripsi").
				Placeholder("Makan siang").
				Value(&v.description).
				Validate(validateDescription),
		).Title("Catat Transaksi"),
	).WithTheme(huh.ThemeCharm())
}

func categoryChoices(k model.Kind) []huh.Option[string] {
	opts := model.CategoryOptions(k)
	out := make([]huh.Option[string], len(opts))
	for i, o := range opts {
		out[i] = huh.NewOption(o.Label, string(o.Category))
	}
	return out
}

func validateAmount(s string) error {
	d, err := ledger.ParseAmount(s)
	if err != nil {
		return errors.New(errorText(err))
	}
	if !d.IsPositive() {
		return errors.New("Jumlah transaksi harus lebih besar dari 0.")
	}
	return nil
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("Deskripsi tidak boleh kosong.")
	}
	return nil
}

func validateMonths(s string) error {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 1 {
		return errors.New("Target Dana Darurat harus minimal 1 bulan.")
	}
	return nil
}

func (v txValues) toNewTransaction() (ledger.NewTransaction, error) {
	amount, err := ledger.ParseAmount(v.amount)
	if err != nil {
		return ledger.NewTransaction{}, err
	}
	return ledger.NewTransaction{
		Kind:        model.Kind(v.kind),
		Category:    model.Category(v.category),
		Amount:      amount,
		Description: v.description,
	}, nil
}

func newProfileForm(v *profileValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Pemasukan Bulanan (Rp)").
				Placeholder("10.000.000").
				Value(&v.income).
				Validate(validateAmount),
			huh.NewInput().
				Title("Target Dana Darurat (bulan)").
				Value(&v.months).
				Validate(validateMonths),
		).Title("Profil Keuangan"),
	).WithTheme(huh.ThemeCharm())
}

func (v profileValues) parse() (decimal.Decimal, int, error) {
	income, err := ledger.ParseAmount(v.income)
	if err != nil {
		return decimal.Zero, 0, err
	}
	months, err := strconv.Atoi(strings.TrimSpace(v.months))
	if err != nil {
		return decimal.Zero, 0, &ledger.ValidationError{Field: "emergency_months", Message: "Target Dana Darurat harus minimal 1 bulan."}
	}
	return income, months, nil
}

func (a App) formWidth() int {
	w := a.width - 8
	if w > 64 {
		w = 64
	}
	if w < 30 {
		w = 30
	}
	return w
}

func (a App) openTransactionForm() (tea.Model, tea.Cmd) {
	if a.ledger == nil {
		return a, a.setFlash("Mode baca saja: transaksi tidak bisa dicatat.", true)
	}

	kind := model.KindExpense
	if a.activeTab == tabSavings {
		kind = model.KindSaving
	}
	a.txVals = &txValues{kind: string(kind)}
	a.form = newTransactionForm(a.txVals).WithWidth(a.formWidth())
	a.formKind = formTransaction
	return a, a.form.Init()
}

func (a App) openProfileForm() (tea.Model, tea.Cmd) {
	if a.ledger == nil {
		return a, a.setFlash("Mode baca saja: profil tidak bisa diubah.", true)
	}

	p := a.frame.Snapshot.Profile
	income := ""
	if p.HasIncome() {
		income = p.MonthlyIncome.String()
	}
	months := p.EmergencyMonths
	if months < 1 {
		months = model.DefaultEmergencyMonths
	}
	a.profVals = &profileValues{income: income, months: strconv.Itoa(months)}
	a.form = newProfileForm(a.profVals).WithWidth(a.formWidth())
	a.formKind = formProfile
	return a, a.form.Init()
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		a.closeForm()
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind := a.formKind
		a.closeForm()
		return a, a.submitForm(kind)
	case huh.StateAborted:
		a.closeForm()
		return a, nil
	}

	return a, cmd
}

func (a *App) submitForm(kind formKind) tea.Cmd {
	switch kind {
	case formTransaction:
		in, err := a.txVals.toNewTransaction()
		if err != nil {
			return a.setFlash(errorText(err), true)
		}
		return addTransactionCmd(a.ledger, in)
	case formProfile:
		income, months, err := a.profVals.parse()
		if err != nil {
			return a.setFlash(errorText(err), true)
		}
		return saveProfileCmd(a.ledger, income, months)
	}
	return nil
}

func addTransactionCmd(l Ledger, in ledger.NewTransaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		tx, err := l.AddTransaction(ctx, in)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{what: fmt.Sprintf("Tercatat: %s %s", tx.Description, cli.FormatRupiah(tx.Amount))}
	}
}

func deleteTransactionCmd(l Ledger, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := l.DeleteTransaction(ctx, id); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{what: "Transaksi dihapus"}
	}
}

func saveProfileCmd(l Ledger, income decimal.Decimal, months int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		p, err := l.SaveProfile(ctx, income, months)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{what: fmt.Sprintf("Profil disimpan: %s/bulan", cli.FormatRupiah(p.MonthlyIncome))}
	}
}

func (a App) viewForm() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)

	hint := lipgloss.NewStyle().Foreground(t.TextDim).Render("esc batal")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(a.form.View()+"\n"+hint),
		lipgloss.WithWhitespaceBackground(t.Background))
}
