package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/kantong/internal/collator"
	"github.com/theirongolddev/kantong/internal/ledger"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/pipeline"
	"github.com/theirongolddev/kantong/internal/status"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type fakeLedger struct {
	added   []ledger.NewTransaction
	deleted []string
	profile *model.Profile
}

func (f *fakeLedger) AddTransaction(_ context.Context, in ledger.NewTransaction) (model.Transaction, error) {
	f.added = append(f.added, in)
	return model.Transaction{ID: "new", Kind: in.Kind, Category: in.Category, Amount: in.Amount, Description: in.Description}, nil
}

func (f *fakeLedger) DeleteTransaction(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeLedger) SaveProfile(_ context.Context, income decimal.Decimal, months int) (model.Profile, error) {
	p := model.Profile{MonthlyIncome: income, EmergencyMonths: months}
	f.profile = &p
	return p, nil
}

var october = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func readyFrame() collator.Frame {
	txs := []model.Transaction{
		{ID: "a", Kind: model.KindIncome, Category: model.CategoryIncome, Amount: decimal.NewFromInt(10_000_000), Description: "Gaji", OccurredAt: october.AddDate(0, 0, -18)},
		{ID: "b", Kind: model.KindExpense, Category: model.CategoryWants, Amount: decimal.NewFromInt(2_000_000), Description: "Konser", OccurredAt: october.Add(-time.Hour)},
		{ID: "c", Kind: model.KindExpense, Category: model.CategoryNeeds, Amount: decimal.NewFromInt(1_000_000), Description: "Sewa", OccurredAt: october.AddDate(0, 0, -10)},
	}
	ws := model.WorldState{
		Profile:      model.Profile{MonthlyIncome: decimal.NewFromInt(10_000_000), EmergencyMonths: 6},
		Transactions: txs,
	}
	snap := pipeline.Compute(ws)
	return collator.Frame{
		Seq:          1,
		At:           october,
		Ready:        true,
		Snapshot:     snap,
		Tiers:        status.Classify(snap),
		Streams:      map[collator.Stream]collator.Health{},
		Transactions: txs,
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, a App, msgs ...tea.Msg) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var m tea.Model
		m, cmd = a.Update(msg)
		a = m.(App)
	}
	return a, cmd
}

func loadedApp(t *testing.T, l Ledger) App {
	t.Helper()
	a := NewApp(Options{Ledger: l, User: "budi", Backend: "memory"})
	a, _ = send(t, a, tea.WindowSizeMsg{Width: 140, Height: 50}, FrameMsg{Frame: readyFrame()})
	return a
}

func TestSinkKeepsNewestFrames(t *testing.T) {
	s := NewSink()
	for i := 0; i < 20; i++ {
		s.Publish(collator.Frame{Seq: int64(i)})
	}

	if got := len(s.ch); got != cap(s.ch) {
		t.Fatalf("buffered = %d, want %d", got, cap(s.ch))
	}
	first := (<-s.ch).(FrameMsg)
	if first.Frame.Seq != 4 {
		t.Errorf("oldest kept seq = %d, want 4", first.Frame.Seq)
	}
	var last FrameMsg
	for len(s.ch) > 0 {
		last = (<-s.ch).(FrameMsg)
	}
	if last.Frame.Seq != 19 {
		t.Errorf("newest seq = %d, want 19", last.Frame.Seq)
	}
}

func TestFrameMsgLoadsAndSortsNewestFirst(t *testing.T) {
	a := loadedApp(t, nil)

	if !a.loaded {
		t.Fatal("ready frame did not mark the app loaded")
	}
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if a.txs[i].ID != id {
			t.Errorf("txs[%d] = %s, want %s", i, a.txs[i].ID, id)
		}
	}
}

func TestResetFrameReturnsToLoading(t *testing.T) {
	a := loadedApp(t, nil)
	a.txState.cursor = 2

	a, cmd := send(t, a, FrameMsg{Frame: collator.Frame{Seq: 2}})
	if a.loaded {
		t.Error("not-ready frame should show the loading view")
	}
	if a.txState.cursor != 0 {
		t.Errorf("cursor = %d, want 0 after the list emptied", a.txState.cursor)
	}
	if cmd == nil {
		t.Error("expected the sink to be polled again")
	}
	if !strings.Contains(a.View(), "Memuat data budi") {
		t.Error("loading view missing")
	}
}

func TestTabKeys(t *testing.T) {
	tests := []struct {
		key  string
		want int
	}{
		{"t", tabTransactions},
		{"a", tabBudget},
		{"b", tabSavings},
		{"p", tabSettings},
		{"d", tabDashboard},
	}
	a := loadedApp(t, nil)
	for _, tt := range tests {
		a, _ = send(t, a, keyPress(tt.key))
		if a.activeTab != tt.want {
			t.Errorf("key %q -> tab %d, want %d", tt.key, a.activeTab, tt.want)
		}
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	l := &fakeLedger{}
	a := loadedApp(t, l)
	a.activeTab = tabTransactions

	a, _ = send(t, a, keyPress("j"), keyPress("x"))
	if a.txState.confirmID != "c" {
		t.Fatalf("confirmID = %q, want c", a.txState.confirmID)
	}

	a, cmd := send(t, a, keyPress("y"))
	if a.txState.confirmID != "" {
		t.Error("confirmation should be cleared")
	}
	if cmd == nil {
		t.Fatal("expected a delete command")
	}
	msg := cmd()
	if done, ok := msg.(actionDoneMsg); !ok || done.err != nil {
		t.Fatalf("delete result = %#v", msg)
	}
	if len(l.deleted) != 1 || l.deleted[0] != "c" {
		t.Errorf("deleted = %v, want [c]", l.deleted)
	}
}

func TestDeleteCancelled(t *testing.T) {
	l := &fakeLedger{}
	a := loadedApp(t, l)
	a.activeTab = tabTransactions

	a, cmd := send(t, a, keyPress("x"), keyPress("n"))
	if a.txState.confirmID != "" || cmd != nil {
		t.Error("any key other than y should cancel the delete")
	}
	if len(l.deleted) != 0 {
		t.Errorf("deleted = %v, want none", l.deleted)
	}
}

func TestReadOnlyRefusesWrites(t *testing.T) {
	a := loadedApp(t, nil)

	a, _ = send(t, a, keyPress("n"))
	if a.form != nil {
		t.Error("form opened without a ledger")
	}
	if !a.flashError || a.flash == "" {
		t.Error("expected a read-only warning")
	}
}

func TestAddFormDefaultsToSavingOnSavingsTab(t *testing.T) {
	a := loadedApp(t, &fakeLedger{})
	a.activeTab = tabSavings

	a, _ = send(t, a, keyPress("n"))
	if a.form == nil || a.formKind != formTransaction {
		t.Fatal("transaction form not opened")
	}
	if a.txVals.kind != string(model.KindSaving) {
		t.Errorf("kind = %s, want saving", a.txVals.kind)
	}

	a, _ = send(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.form != nil {
		t.Error("esc should close the form")
	}
}

func TestSubmitTransactionForm(t *testing.T) {
	l := &fakeLedger{}
	a := loadedApp(t, l)
	a.txVals = &txValues{kind: "expense", category: "gaya-hidup", amount: "150.000", description: "Kopi"}

	cmd := a.submitForm(formTransaction)
	if cmd == nil {
		t.Fatal("expected an add command")
	}
	done, ok := cmd().(actionDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("add result = %#v", done)
	}
	if len(l.added) != 1 || !l.added[0].Amount.Equal(decimal.NewFromInt(150_000)) {
		t.Errorf("added = %+v", l.added)
	}
}

func TestSubmitProfileForm(t *testing.T) {
	l := &fakeLedger{}
	a := loadedApp(t, l)
	a.profVals = &profileValues{income: "12.500.000", months: "3"}

	cmd := a.submitForm(formProfile)
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	cmd()
	if l.profile == nil || l.profile.EmergencyMonths != 3 || !l.profile.MonthlyIncome.Equal(decimal.NewFromInt(12_500_000)) {
		t.Errorf("profile = %+v", l.profile)
	}
}

func TestActionDoneTriggersRefresh(t *testing.T) {
	refreshed := false
	a := NewApp(Options{Refresh: func(context.Context) error {
		refreshed = true
		return nil
	}})

	a, cmd := send(t, a, actionDoneMsg{what: "Transaksi dihapus"})
	if !a.refreshing || a.flash != "Transaksi dihapus" {
		t.Errorf("refreshing=%v flash=%q", a.refreshing, a.flash)
	}
	if cmd == nil {
		t.Fatal("expected follow-up commands")
	}

	a, _ = send(t, a, refreshCmd(a.refresh)())
	if !refreshed || a.refreshing {
		t.Errorf("refreshed=%v refreshing=%v", refreshed, a.refreshing)
	}
}

func TestReloadKeyPrefersReload(t *testing.T) {
	var refreshed, reloaded bool
	a := NewApp(Options{
		Refresh: func(context.Context) error { refreshed = true; return nil },
		Reload:  func(context.Context) error { reloaded = true; return nil },
	})
	a, _ = send(t, a, tea.WindowSizeMsg{Width: 140, Height: 50}, FrameMsg{Frame: readyFrame()})

	a, cmd := send(t, a, keyPress("r"))
	if cmd == nil || !a.refreshing {
		t.Fatalf("r should start a reload: cmd=%v refreshing=%v", cmd != nil, a.refreshing)
	}
	a, _ = send(t, a, cmd())
	if !reloaded || refreshed {
		t.Errorf("reloaded=%v refreshed=%v", reloaded, refreshed)
	}
	if a.refreshing {
		t.Error("refreshing should clear after the reload finishes")
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) error
		in   string
		ok   bool
	}{
		{"amount grouped", validateAmount, "1.500.000", true},
		{"amount zero", validateAmount, "0", false},
		{"amount junk", validateAmount, "abc", false},
		{"description blank", validateDescription, "   ", false},
		{"description", validateDescription, "Makan", true},
		{"months", validateMonths, "6", true},
		{"months zero", validateMonths, "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.in)
			if (err == nil) != tt.ok {
				t.Errorf("%q: err = %v, want ok=%v", tt.in, err, tt.ok)
			}
		})
	}
}

func TestEveryTabRenders(t *testing.T) {
	a := loadedApp(t, nil)
	want := []string{"Analisis Keuangan", "Konser", "Anggaran 50/30/10/10", "Dana Darurat", "Profil"}

	for tab, text := range want {
		a.activeTab = tab
		view := a.View()
		if !strings.Contains(view, text) {
			t.Errorf("tab %d view missing %q", tab, text)
		}
	}
}
