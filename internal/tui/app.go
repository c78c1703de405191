// Package tui provides the interactive Bubble Tea dashboard for kantong.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/collator"
	"github.com/theirongolddev/kantong/internal/config"
	"github.com/theirongolddev/kantong/internal/ledger"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/tui/components"
	"github.com/theirongolddev/kantong/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// FrameMsg carries a dashboard frame published by the collator.
type FrameMsg struct {
	Frame collator.Frame
}

// NoticeMsg reports a stream that could not be refreshed.
type NoticeMsg struct {
	Notice collator.Notice
}

// SessionEndedMsg is sent when the background session stops.
type SessionEndedMsg struct {
	Err error
}

type actionDoneMsg struct {
	what string
	err  error
}

type refreshDoneMsg struct {
	err error
}

type clearFlashMsg struct {
	at time.Time
}

// Sink forwards collator output into the Bubble Tea event loop. Publish
// and Notify never block; when the buffer is full the oldest message is
// dropped since every frame supersedes the ones before it.
type Sink struct {
	ch chan tea.Msg
}

// NewSink returns a Sink with a small buffer.
func NewSink() *Sink {
	return &Sink{ch: make(chan tea.Msg, 16)}
}

// Publish implements collator.Sink.
func (s *Sink) Publish(f collator.Frame) { s.send(FrameMsg{Frame: f}) }

// Notify implements collator.Notifier.
func (s *Sink) Notify(n collator.Notice) { s.send(NoticeMsg{Notice: n}) }

func (s *Sink) send(m tea.Msg) {
	for {
		select {
		case s.ch <- m:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Ledger is the write side the dashboard drives.
type Ledger interface {
	AddTransaction(ctx context.Context, in ledger.NewTransaction) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	SaveProfile(ctx context.Context, income decimal.Decimal, months int) (model.Profile, error)
}

// Options wires an App to a running session.
type Options struct {
	Sink    *Sink
	Ledger  Ledger
	Refresh func(context.Context) error
	// Reload re-reads every stream even when nothing changed. It backs
	// the r key and falls back to Refresh when nil.
	Reload  func(context.Context) error
	User    string
	Backend string
}

type formKind int

const (
	formNone formKind = iota
	formTransaction
	formProfile
)

const (
	tabDashboard = iota
	tabTransactions
	tabBudget
	tabSavings
	tabSettings
)

// App is the root Bubble Tea model.
type App struct {
	// Data
	frame  collator.Frame
	txs    []model.Transaction // newest first
	loaded bool

	// Session wiring
	sink    *Sink
	ledger  Ledger
	refresh func(context.Context) error
	reload  func(context.Context) error
	user    string
	backend string

	refreshing bool
	sessionErr error
	lastNotice *collator.Notice

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	flash      string
	flashError bool
	flashAt    time.Time

	// Per-tab state
	txState  txListState
	settings settingsState

	// Active huh form, if any
	form     *huh.Form
	formKind formKind
	txVals   *txValues
	profVals *profileValues
	spinner  spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 160

	minContentHeight = 5
	flashDuration    = 4 * time.Second
	actionTimeout    = 10 * time.Second
)

// loadConfigOrDefault loads config, returning defaults on error.
// This ensures the TUI can always start even if config is corrupted.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	sink := opts.Sink
	if sink == nil {
		sink = NewSink()
	}

	return App{
		sink:    sink,
		ledger:  opts.Ledger,
		refresh: opts.Refresh,
		reload:  opts.Reload,
		user:    opts.User,
		backend: opts.Backend,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		waitForSinkMsg(a.sink.ch),
		a.spinner.Tick,
	)
}

// waitForSinkMsg blocks until the session publishes the next message.
func waitForSinkMsg(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (a *App) applyFrame(f collator.Frame) {
	a.frame = f
	a.loaded = f.Ready

	txs := make([]model.Transaction, len(f.Transactions))
	copy(txs, f.Transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].OccurredAt.After(txs[j].OccurredAt)
	})
	a.txs = txs

	if a.txState.cursor >= len(a.txs) {
		a.txState.cursor = len(a.txs) - 1
	}
	if a.txState.cursor < 0 {
		a.txState.cursor = 0
	}
	if a.txState.confirmID != "" && !a.hasTransaction(a.txState.confirmID) {
		a.txState.confirmID = ""
	}
}

func (a App) hasTransaction(id string) bool {
	for _, tx := range a.txs {
		if tx.ID == id {
			return true
		}
	}
	return false
}

func (a *App) setFlash(msg string, isErr bool) tea.Cmd {
	a.flash = msg
	a.flashError = isErr
	a.flashAt = time.Now()
	at := a.flashAt
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return clearFlashMsg{at: at}
	})
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth())
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.form != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.form != nil {
			return a.updateForm(msg)
		}
		return a.updateKey(msg)

	case FrameMsg:
		wasLoaded := a.loaded
		a.applyFrame(msg.Frame)
		if wasLoaded && !a.loaded {
			return a, tea.Batch(waitForSinkMsg(a.sink.ch), a.spinner.Tick)
		}
		return a, waitForSinkMsg(a.sink.ch)

	case NoticeMsg:
		n := msg.Notice
		a.lastNotice = &n
		cmd := a.setFlash(fmt.Sprintf("Gagal memuat %s: %s", n.Stream, n.Err), true)
		return a, tea.Batch(cmd, waitForSinkMsg(a.sink.ch))

	case SessionEndedMsg:
		a.sessionErr = msg.Err
		if msg.Err != nil {
			return a, a.setFlash("Sesi berhenti: "+msg.Err.Error(), true)
		}
		return a, nil

	case actionDoneMsg:
		if msg.err != nil {
			return a, a.setFlash(errorText(msg.err), true)
		}
		cmds := []tea.Cmd{a.setFlash(msg.what, false)}
		if a.refresh != nil && !a.refreshing {
			a.refreshing = true
			cmds = append(cmds, refreshCmd(a.refresh))
		}
		return a, tea.Batch(cmds...)

	case refreshDoneMsg:
		a.refreshing = false
		if msg.err != nil {
			return a, a.setFlash(errorText(msg.err), true)
		}
		return a, nil

	case clearFlashMsg:
		if msg.at.Equal(a.flashAt) {
			a.flash = ""
			a.flashError = false
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the active form (cursor blinks, etc.)
	if a.form != nil {
		return a.updateForm(msg)
	}

	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabTransactions {
			a.txState.move(-1, len(a.txs))
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabTransactions {
			a.txState.move(1, len(a.txs))
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if !a.loaded {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	// A pending delete confirmation intercepts all keys.
	if a.txState.confirmID != "" {
		return a.updateDeleteConfirm(key)
	}

	switch a.activeTab {
	case tabTransactions:
		if m, cmd, ok := a.updateTransactionsKey(key); ok {
			return m, cmd
		}
	case tabSettings:
		if m, cmd, ok := a.updateSettingsKey(key); ok {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "n":
		return a.openTransactionForm()
	case "r":
		reload := a.reload
		if reload == nil {
			reload = a.refresh
		}
		if reload != nil && !a.refreshing {
			a.refreshing = true
			return a, refreshCmd(reload)
		}
		return a, nil
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func refreshCmd(refresh func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return refreshDoneMsg{err: refresh(ctx)}
	}
}

func errorText(err error) string {
	var ve *ledger.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.form != nil {
		return a.viewForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal terlalu sempit (%d kolom)\n\n  kantong butuh minimal %d kolom.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ kantong"))
	b.WriteString(subtitleStyle.Render(" · Anggaran 50/30/10/10"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Memuat data " + a.user + "..."))

	if a.lastNotice != nil {
		b.WriteString("\n\n")
		b.WriteString(errStyle.Render(fmt.Sprintf("%s: %s", a.lastNotice.Stream, a.lastNotice.Err)))
	}
	if a.sessionErr != nil {
		b.WriteString("\n\n")
		b.WriteString(errStyle.Render(a.sessionErr.Error()))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigasi", []struct{ key, desc string }{
			{"d t a b p", "Pindah tab"},
			{"← → tab", "Tab sebelumnya / berikutnya"},
			{"j k", "Pilih transaksi"},
		}},
		{"Aksi", []struct{ key, desc string }{
			{"n", "Catat transaksi"},
			{"x", "Hapus transaksi terpilih"},
			{"e", "Ubah profil (Pengaturan)"},
			{"T", "Ganti tema (Pengaturan)"},
			{"r", "Muat ulang data"},
			{"?", "Bantuan"},
			{"q", "Keluar"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Pintasan Keyboard"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Tekan tombol apa saja untuk menutup"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusInfo() components.StatusInfo {
	info := components.StatusInfo{
		User:       a.user,
		Refreshing: a.refreshing,
		Flash:      a.flash,
		FlashError: a.flashError,
	}
	if !a.frame.At.IsZero() {
		info.Updated = cli.FormatDate(a.frame.At)
	}
	for _, h := range a.frame.Streams {
		if h.Stale() {
			info.Stale = true
		}
	}
	return info
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.statusInfo())

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabDashboard:
		content = a.renderDashboardTab(cw)
	case tabTransactions:
		content = a.renderTransactionsTab(cw, contentH)
	case tabBudget:
		content = a.renderBudgetTab(cw)
	case tabSavings:
		content = a.renderSavingsTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the widths RenderTabBar draws, with a one-column
// separator between tabs.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)

		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
