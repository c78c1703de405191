package collator

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/model"
)

// Stream names one of the three independent inputs.
type Stream string

const (
	StreamProfile      Stream = "profile"
	StreamTransactions Stream = "transactions"
	StreamEmergency    Stream = "emergency_total"
)

// Streams lists every input stream.
var Streams = []Stream{StreamProfile, StreamTransactions, StreamEmergency}

// ParseStream returns the stream named s.
func ParseStream(s string) (Stream, bool) {
	for _, st := range Streams {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type control int

const (
	controlNone control = iota
	controlReady
	controlNotReady
	controlReset
)

// Update is one delivery handed to Run. Build it with the constructors
// below rather than by hand.
type Update struct {
	Stream       Stream
	Profile      model.Profile
	Transactions []model.Transaction
	Total        decimal.Decimal
	Err          error

	ctl control
}

// ProfileUpdate delivers a new profile.
func ProfileUpdate(p model.Profile) Update {
	return Update{Stream: StreamProfile, Profile: p}
}

// TransactionsUpdate delivers a new current-period transaction set.
func TransactionsUpdate(txs []model.Transaction) Update {
	return Update{Stream: StreamTransactions, Transactions: txs}
}

// AggregateUpdate delivers a new all-time emergency-fund total.
func AggregateUpdate(total decimal.Decimal) Update {
	return Update{Stream: StreamEmergency, Total: total}
}

// ErrUnknownFailure stands in for a failure reported without an error.
var ErrUnknownFailure = errors.New("collator: delivery failed without an error")

// FailedUpdate reports that stream could not be delivered. A nil err is
// replaced by ErrUnknownFailure so the update is never taken as data.
func FailedUpdate(stream Stream, err error) Update {
	if err == nil {
		err = ErrUnknownFailure
	}
	return Update{Stream: stream, Err: err}
}

// ReadyUpdate toggles readiness.
func ReadyUpdate(ready bool) Update {
	if ready {
		return Update{ctl: controlReady}
	}
	return Update{ctl: controlNotReady}
}

// ResetUpdate restores the default state.
func ResetUpdate() Update {
	return Update{ctl: controlReset}
}
