package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// RawDoc is one exported transaction document, one per JSONL line.
type RawDoc struct {
	ID          string          `json:"id,omitempty"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Timestamp   Timestamp       `json:"timestamp"`
}

// Timestamp accepts the shapes an export may carry: unix millis, an
// RFC 3339 string, or a Firestore {seconds, nanoseconds} object.
type Timestamp struct {
	time.Time
}

type firestoreTime struct {
	Seconds      *int64 `json:"seconds"`
	Nanoseconds  int64  `json:"nanoseconds"`
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = time.UnixMilli(ms)
			return nil
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		t.Time = ts
		return nil

	case '{':
		var ft firestoreTime
		if err := json.Unmarshal(data, &ft); err != nil {
			return err
		}
		switch {
		case ft.Seconds != nil:
			t.Time = time.Unix(*ft.Seconds, ft.Nanoseconds)
		case ft.USeconds != nil:
			t.Time = time.Unix(*ft.USeconds, ft.UNanoseconds)
		default:
			return fmt.Errorf("timestamp object without seconds: %s", data)
		}
		return nil
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", data, err)
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}

// DiscoveredFile is a JSONL export found during scanning.
type DiscoveredFile struct {
	Path string
	Name string // file name without extension
}
