// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer is created per call; message.Printer is not documented as safe
// for concurrent use.
func printer() *message.Printer {
	return message.NewPrinter(language.Indonesian)
}

// FormatRupiah formats an amount as whole rupiah with Indonesian grouping.
// e.g., 5000000 -> "Rp 5.000.000", -1000 -> "-Rp 1.000"
func FormatRupiah(d decimal.Decimal) string {
	n := d.Round(0).IntPart()
	if n < 0 {
		return "-Rp " + FormatNumber(-n)
	}
	return "Rp " + FormatNumber(n)
}

// FormatSignedRupiah is FormatRupiah with an explicit plus sign for gains.
func FormatSignedRupiah(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + FormatRupiah(d)
	}
	return FormatRupiah(d)
}

// FormatNumber groups an integer the Indonesian way.
// e.g., 1234567 -> "1.234.567"
func FormatNumber(n int64) string {
	return printer().Sprintf("%d", n)
}

// FormatPercent formats a percentage rounded half-up to a whole number.
// e.g., 49.5 -> "50%"
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%s%%", decimal.NewFromFloat(pct).Round(0).String())
}

var monthNames = []string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatMonth returns the Indonesian month and year, e.g. "Oktober 2026".
func FormatMonth(t time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

// FormatDate formats a transaction date, e.g. "19 Okt 2026 14:05".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d %02d:%02d",
		t.Day(), monthNames[t.Month()-1][:3], t.Year(), t.Hour(), t.Minute())
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
