package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(Config{Level: "debug", Format: "json", Output: &buf}), ComponentFeed)
	l.Debug("refreshed", FieldStream, "profile")

	out := buf.String()
	if !strings.Contains(out, `"component":"feed"`) || !strings.Contains(out, `"stream":"profile"`) {
		t.Fatalf("unexpected log line: %s", out)
	}
}
