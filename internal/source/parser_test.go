package source

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/kantong/internal/model"
)

// writeExport creates a JSONL export in dir and returns a DiscoveredFile for it.
func writeExport(t *testing.T, dir, name string, lines ...string) DiscoveredFile {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return discovered(path)
}

func TestParseFile_Kinds(t *testing.T) {
	df := writeExport(t, t.TempDir(), "tx.jsonl",
		`{"id":"a","type":"income","category":"pemasukan","amount":5000000,"description":"Gaji","timestamp":1790000000000}`,
		`{"id":"b","type":"expense","category":"gaya-hidup","amount":"150000","description":"Nonton","timestamp":"2026-10-02T12:00:00Z"}`,
		`{"id":"c","type":"saving","category":"dana-darurat","amount":250000.5,"description":"DD","timestamp":{"seconds":1790000000,"nanoseconds":0}}`,
	)

	res := ParseFile(df)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(res.Transactions))
	}

	income := res.Transactions[0]
	if income.Kind != model.KindIncome || income.Category != model.CategoryIncome {
		t.Errorf("income = %+v", income)
	}
	if !income.OccurredAt.Equal(time.UnixMilli(1790000000000)) {
		t.Errorf("income time = %v", income.OccurredAt)
	}

	if got := res.Transactions[1].Amount.String(); got != "150000" {
		t.Errorf("quoted amount = %s, want 150000", got)
	}
	if !res.Transactions[1].OccurredAt.Equal(time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("rfc3339 time = %v", res.Transactions[1].OccurredAt)
	}

	if got := res.Transactions[2].Amount.String(); got != "250000.5" {
		t.Errorf("fractional amount = %s", got)
	}
	if !res.Transactions[2].OccurredAt.Equal(time.Unix(1790000000, 0)) {
		t.Errorf("firestore time = %v", res.Transactions[2].OccurredAt)
	}
}

func TestParseFile_MalformedAndUnknown(t *testing.T) {
	df := writeExport(t, t.TempDir(), "tx.jsonl",
		`not json`,
		``,
		`{"type":"transfer","category":"x","amount":1,"description":"?","timestamp":1}`,
		`{"type":"expense","category":"kebutuhan","amount":"abc","description":"bad amount","timestamp":1}`,
		`{"type":"Expense","category":"kebutuhan","amount":1000,"description":"ok","timestamp":1}`,
	)

	res := ParseFile(df)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", res.ParseErrors)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if len(res.Transactions) != 1 || res.Transactions[0].Kind != model.KindExpense {
		t.Errorf("transactions = %+v", res.Transactions)
	}
}

func TestParseFile_LastDuplicateWins(t *testing.T) {
	df := writeExport(t, t.TempDir(), "tx.jsonl",
		`{"id":"dup","type":"expense","category":"kebutuhan","amount":100,"description":"first","timestamp":1}`,
		`{"id":"other","type":"expense","category":"kebutuhan","amount":5,"description":"other","timestamp":2}`,
		`{"id":"dup","type":"expense","category":"kebutuhan","amount":200,"description":"second","timestamp":3}`,
	)

	res := ParseFile(df)
	if len(res.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(res.Transactions))
	}
	if res.Transactions[0].Description != "second" {
		t.Errorf("dup kept %q, want second", res.Transactions[0].Description)
	}
}

func TestParseFile_Missing(t *testing.T) {
	res := ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "nope.jsonl")})
	if res.Err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTimestamp_Variants(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{`1790000000000`, time.UnixMilli(1790000000000), false},
		{`"1790000000000"`, time.UnixMilli(1790000000000), false},
		{`"2026-10-02T12:00:00+07:00"`, time.Date(2026, 10, 2, 5, 0, 0, 0, time.UTC), false},
		{`{"_seconds":1790000000,"_nanoseconds":5}`, time.Unix(1790000000, 5), false},
		{`null`, time.Time{}, false},
		{`"yesterday"`, time.Time{}, true},
		{`{"minutes":1}`, time.Time{}, true},
	}

	for _, tt := range tests {
		var ts Timestamp
		err := ts.UnmarshalJSON([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !ts.Time.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.in, ts.Time, tt.want)
		}
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "b.jsonl", `{}`)
	writeExport(t, dir, "nested/a.jsonl", `{}`)
	writeExport(t, dir, "notes.txt", `{}`)
	writeExport(t, dir, ".hidden/c.jsonl", `{}`)

	files, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %+v", len(files), files)
	}
	if files[0].Name != "b" || files[1].Name != "a" {
		t.Errorf("order = %s, %s", files[0].Name, files[1].Name)
	}

	single, err := Scan(filepath.Join(dir, "b.jsonl"))
	if err != nil || len(single) != 1 {
		t.Errorf("single file scan = %v, %v", single, err)
	}

	none, err := Scan(filepath.Join(dir, "missing"))
	if err != nil || none != nil {
		t.Errorf("missing scan = %v, %v", none, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "2026-09.jsonl",
		`{"id":"a","type":"income","category":"pemasukan","amount":1,"description":"a","timestamp":1}`,
		`garbage`,
	)
	writeExport(t, dir, "2026-10.jsonl",
		`{"id":"b","type":"expense","category":"kebutuhan","amount":2,"description":"b","timestamp":2}`,
	)

	var calls atomic.Int64
	res, err := Load(dir, func(current, total int) {
		calls.Add(1)
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalFiles != 2 || res.ParsedFiles != 2 {
		t.Errorf("files = %d/%d", res.ParsedFiles, res.TotalFiles)
	}
	if res.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", res.ParseErrors)
	}
	if len(res.Transactions) != 2 || res.Transactions[0].ID != "a" || res.Transactions[1].ID != "b" {
		t.Errorf("transactions = %+v", res.Transactions)
	}
	if calls.Load() != 2 {
		t.Errorf("progress calls = %d, want 2", calls.Load())
	}
}
