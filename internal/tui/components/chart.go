package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/kantong/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Column is one bar of a ColumnChart.
type Column struct {
	Label string
	Value float64
}

// ColumnChart draws cols as vertical bars against a dashed limit line,
// e.g. daily spending against the daily budget. Bars above the limit use
// over, the rest under. A limit <= 0 draws no line. When cols do not fit
// in width the most recent ones are kept.
func ColumnChart(cols []Column, limit float64, under, over lipgloss.Color, width, height int) string {
	if len(cols) == 0 || height < 2 {
		return ""
	}
	t := theme.Active

	const yLabelW = 7 // fits "999,5rb"
	plotW := width - yLabelW - 1
	if plotW < 1 {
		return ""
	}

	barW, gap := 2, 1
	if len(cols)*(barW+gap)-gap > plotW {
		barW, gap = 1, 0
	}
	if len(cols) > plotW {
		cols = cols[len(cols)-plotW:]
	}
	top := peak(cols, limit)

	limitRow := 0
	if limit > 0 {
		limitRow = int(math.Ceil(limit / top * float64(height)))
		limitRow = max(1, min(limitRow, height))
	}

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	line := lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Surface)
	underStyle := lipgloss.NewStyle().Foreground(under).Background(t.Surface)
	overStyle := lipgloss.NewStyle().Foreground(over).Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		lo := top * float64(row-1) / float64(height)
		hi := top * float64(row) / float64(height)

		label := ""
		switch row {
		case height:
			label = formatChartLabel(top)
		case limitRow:
			label = formatChartLabel(limit)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, c := range cols {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(" "))
			}
			style := underStyle
			if limit > 0 && c.Value > limit {
				style = overStyle
			}
			switch cell := columnCell(c.Value, lo, hi); {
			case cell != ' ':
				b.WriteString(style.Render(strings.Repeat(string(cell), barW)))
			case row == limitRow:
				b.WriteString(line.Render(strings.Repeat("╌", barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	pitch := barW + gap
	axisLen := len(cols)*pitch - gap
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", axisLen))))
	b.WriteString("\n")
	b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
	b.WriteString(axis.Render(columnLabels(cols, pitch, axisLen)))

	return b.String()
}

// peak is the chart ceiling: the largest value or the limit, never zero.
func peak(cols []Column, limit float64) float64 {
	top := limit
	for _, c := range cols {
		top = math.Max(top, c.Value)
	}
	if top <= 0 {
		return 1
	}
	return top
}

// columnCell returns the glyph for a bar of height v inside the row
// spanning (lo, hi]: full, an eighth block, or a space.
func columnCell(v, lo, hi float64) rune {
	eighths := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	switch {
	case v >= hi:
		return '█'
	case v > lo:
		idx := int((v - lo) / (hi - lo) * 8)
		return eighths[max(0, min(idx, 7))]
	default:
		return ' '
	}
}

// columnLabels spreads labels under their bars, skipping any that would
// run into the previous one. The last column is always labeled.
func columnLabels(cols []Column, pitch, width int) string {
	buf := []rune(strings.Repeat(" ", width))
	put := func(pos int, lbl string) {
		for j, r := range []rune(lbl) {
			if pos+j < width {
				buf[pos+j] = r
			}
		}
	}

	last := len(cols) - 1
	lastPos := last * pitch
	lastW := len([]rune(cols[last].Label))
	if lastPos+lastW > width {
		lastPos = max(0, width-lastW)
	}

	end := -1
	for i := 0; i < last; i++ {
		pos := i * pitch
		w := len([]rune(cols[i].Label))
		if pos <= end || pos+w >= lastPos {
			continue
		}
		put(pos, cols[i].Label)
		end = pos + w
	}
	put(lastPos, cols[last].Label)

	return strings.TrimRight(string(buf), " ")
}

// formatChartLabel abbreviates rupiah amounts the Indonesian way:
// rb (ribu), jt (juta), M (miliar).
func formatChartLabel(v float64) string {
	var out string
	switch {
	case v >= 1e9:
		out = trimZero(v/1e9) + "M"
	case v >= 1e6:
		out = trimZero(v/1e6) + "jt"
	case v >= 1e3:
		out = trimZero(v/1e3) + "rb"
	default:
		out = fmt.Sprintf("%.0f", v)
	}
	return strings.Replace(out, ".", ",", 1)
}

func trimZero(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
