package theme

import (
	"testing"

	"github.com/theirongolddev/kantong/internal/status"
)

func TestNextCyclesThroughAllThemes(t *testing.T) {
	seen := map[string]bool{}
	name := All[0].Name
	for range All {
		seen[name] = true
		name = Next(name).Name
	}
	if name != All[0].Name || len(seen) != len(All) {
		t.Fatalf("cycle ended at %q after visiting %d of %d themes", name, len(seen), len(All))
	}
	if Next("unknown").Name != All[0].Name {
		t.Error("unknown theme should restart the cycle")
	}
}

func TestByNameFallsBackToGelap(t *testing.T) {
	if got := ByName("flexoki-dark").Name; got != Gelap.Name {
		t.Errorf("ByName(unknown) = %q, want %q", got, Gelap.Name)
	}
}

func TestTierColor(t *testing.T) {
	defer SetActive(Gelap.Name)

	for _, th := range All {
		SetActive(th.Name)
		tests := []struct {
			tier status.Tier
			want string
		}{
			{status.Critical, string(th.Danger)},
			{status.Warning, string(th.Caution)},
			{status.Progress, string(th.Caution)},
			{status.Safe, string(th.Safe)},
			{status.Achieved, string(th.Safe)},
			{status.DataMissing, string(th.TextMuted)},
		}
		for _, tt := range tests {
			if got := string(TierColor(tt.tier)); got != tt.want {
				t.Errorf("%s: TierColor(%s) = %s, want %s", th.Name, tt.tier, got, tt.want)
			}
		}
	}
}
