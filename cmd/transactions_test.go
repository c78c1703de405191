package cmd

import (
	"testing"
	"time"
)

func TestMonthRange(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, loc)

	tests := []struct {
		month     string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{"", time.Date(2026, 10, 1, 0, 0, 0, 0, loc), time.Date(2026, 11, 1, 0, 0, 0, 0, loc), false},
		{"2026-12", time.Date(2026, 12, 1, 0, 0, 0, 0, loc), time.Date(2027, 1, 1, 0, 0, 0, 0, loc), false},
		{"Oktober", time.Time{}, time.Time{}, true},
	}

	for _, tt := range tests {
		start, end, err := monthRange(tt.month, now)
		if (err != nil) != tt.wantErr {
			t.Errorf("monthRange(%q) err = %v, wantErr %v", tt.month, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
			t.Errorf("monthRange(%q) = [%s, %s), want [%s, %s)", tt.month, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}
