package tui

import "testing"

func TestTabAtXMatchesTabWidths(t *testing.T) {
	names := []string{"Dasbor", "Transaksi", "Anggaran", "Tabungan", "Pengaturan"}

	for active := range names {
		a := App{activeTab: active}
		pos := 0

		for i, name := range names {
			w := len(name) + 2 // one column of padding each side
			x := pos + w/2
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w
			if i < len(names)-1 {
				if got := a.tabAtX(pos); got != -1 {
					t.Fatalf("active=%d separator x=%d -> tab=%d, want -1", active, pos, got)
				}
				pos++
			}
		}

		if got := a.tabAtX(pos + 5); got != -1 {
			t.Fatalf("active=%d past last tab -> %d, want -1", active, got)
		}
	}
}
