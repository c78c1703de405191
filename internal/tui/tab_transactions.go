package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/tui/components"
	"github.com/theirongolddev/kantong/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// txListState tracks the transactions tab state.
type txListState struct {
	cursor    int
	confirmID string // transaction awaiting delete confirmation
}

func (s *txListState) move(delta, n int) {
	s.cursor += delta
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// txListOverhead is the card chrome, header and footer around the rows.
const txListOverhead = 7

func (a App) updateTransactionsKey(key string) (tea.Model, tea.Cmd, bool) {
	n := len(a.txs)
	switch key {
	case "j", "down":
		a.txState.move(1, n)
	case "k", "up":
		a.txState.move(-1, n)
	case "g", "home":
		a.txState.cursor = 0
	case "G", "end":
		a.txState.move(n, n)
	case "x", "delete":
		if n == 0 {
			return a, nil, true
		}
		if a.ledger == nil {
			return a, a.setFlash("Mode baca saja: transaksi tidak bisa dihapus.", true), true
		}
		a.txState.confirmID = a.txs[a.txState.cursor].ID
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	id := a.txState.confirmID
	a.txState.confirmID = ""
	if key == "y" || key == "Y" {
		return a, deleteTransactionCmd(a.ledger, id)
	}
	return a, nil
}

func kindColor(k model.Kind) lipgloss.Color {
	t := theme.Active
	switch k {
	case model.KindIncome:
		return t.GreenBright
	case model.KindExpense:
		return t.Orange
	default:
		return t.BlueBright
	}
}

func padCell(s string, w int) string {
	s = cli.Truncate(s, w)
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padCellLeft(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

func (a App) renderTransactionsTab(cw, h int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)

	const (
		dateW   = 17
		kindW   = 11
		catW    = 14
		amountW = 16
	)
	descW := innerW - dateW - kindW - catW - amountW - 4
	if descW < 8 {
		descW = 8
	}

	var body strings.Builder
	body.WriteString(headerStyle.Render(
		padCell("Tanggal", dateW) + " " + padCell("Jenis", kindW) + " " + padCell("Kategori", catW) + " " +
			padCell("Deskripsi", descW) + " " + padCellLeft("Jumlah", amountW)))
	body.WriteString("\n")

	if len(a.txs) == 0 {
		body.WriteString(mutedStyle.Render("Belum ada transaksi bulan ini. Tekan [n] untuk mencatat."))
		return components.ContentCard("Transaksi · "+cli.FormatMonth(a.frame.At), body.String(), cw)
	}

	visible := h - txListOverhead
	if visible < 3 {
		visible = 3
	}
	offset := 0
	if a.txState.cursor >= visible {
		offset = a.txState.cursor - visible + 1
	}
	end := offset + visible
	if end > len(a.txs) {
		end = len(a.txs)
	}

	for i := offset; i < end; i++ {
		tx := a.txs[i]
		style := rowStyle
		if i == a.txState.cursor {
			style = selStyle
		}
		amount := lipgloss.NewStyle().Foreground(kindColor(tx.Kind)).Background(style.GetBackground()).
			Render(padCellLeft(cli.FormatRupiah(tx.Amount), amountW))
		body.WriteString(style.Render(
			padCell(cli.FormatDate(tx.OccurredAt.Local()), dateW)+" "+
				padCell(model.KindLabel(tx.Kind), kindW)+" "+
				padCell(model.CategoryLabel(tx.Category), catW)+" "+
				padCell(tx.Description, descW)+" ") + amount)
		body.WriteString("\n")
	}

	r := a.frame.Snapshot.Realized
	footer := fmt.Sprintf("%d dari %d · Saldo %s", a.txState.cursor+1, len(a.txs), cli.FormatSignedRupiah(r.CashBalance))
	body.WriteString(mutedStyle.Render(footer))
	body.WriteString("\n")

	if id := a.txState.confirmID; id != "" {
		desc := id
		for _, tx := range a.txs {
			if tx.ID == id {
				desc = fmt.Sprintf("%q (%s)", tx.Description, cli.FormatRupiah(tx.Amount))
			}
		}
		body.WriteString(lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true).
			Render("Hapus " + desc + "? [y/N]"))
	} else {
		body.WriteString(mutedStyle.Render("[j/k] pilih  [n] catat  [x] hapus"))
	}

	return components.ContentCard("Transaksi · "+cli.FormatMonth(a.frame.At), body.String(), cw)
}
