// Package collator merges the profile, transaction and emergency-total
// streams into one world state and republishes a dashboard frame after
// every accepted delivery.
package collator

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	applog "github.com/theirongolddev/kantong/internal/log"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/pipeline"
	"github.com/theirongolddev/kantong/internal/status"
)

// Health tracks delivery outcomes for a single stream.
type Health struct {
	LastDelivery time.Time `json:"last_delivery,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	FailedAt     time.Time `json:"failed_at,omitempty"`
	Failures     int       `json:"failures"`
}

// Stale reports whether the last delivery attempt failed.
func (h Health) Stale() bool { return h.LastError != "" }

// Frame is what presentation layers receive after each recomputation.
// Frames are values; nothing in a published frame is modified later.
type Frame struct {
	Seq          int64               `json:"seq"`
	At           time.Time           `json:"at"`
	Ready        bool                `json:"ready"`
	Snapshot     model.Snapshot      `json:"snapshot"`
	Tiers        status.Tiers        `json:"tiers"`
	Streams      map[Stream]Health   `json:"streams"`
	Transactions []model.Transaction `json:"transactions"`
}

// Notice reports a stream delivery failure to the user-facing layer.
type Notice struct {
	Stream Stream    `json:"stream"`
	Err    string    `json:"error"`
	At     time.Time `json:"at"`
}

// Sink receives frames. Publish runs on the collator goroutine and must
// not block.
type Sink interface {
	Publish(Frame)
}

// Notifier is implemented by sinks that also want failure notices.
type Notifier interface {
	Notify(Notice)
}

// Option configures a Collator.
type Option func(*Collator)

// WithSink registers a sink at construction.
func WithSink(s Sink) Option {
	return func(c *Collator) { c.sinks = append(c.sinks, s) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collator) { c.logger = l }
}

// WithClock overrides the frame timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Collator) { c.now = now }
}

// WithBuffer sets the capacity of the delivery queue used by Run.
func WithBuffer(n int) Option {
	return func(c *Collator) {
		if n > 0 {
			c.updates = make(chan Update, n)
		}
	}
}

// Collator owns the world state. The Apply* methods, SetReady, Reset and
// Fail mutate it without locking and must only be called from one
// goroutine at a time; Run provides that goroutine for concurrent
// producers that go through Deliver.
type Collator struct {
	state  model.WorldState
	health map[Stream]Health
	seq    int64

	sinks []Sink

	last    atomic.Pointer[Frame]
	updates chan Update
	now     func() time.Time
	logger  *slog.Logger
}

// New returns a collator holding the default, not-ready world state.
func New(opts ...Option) *Collator {
	c := &Collator{
		state:   model.DefaultWorldState(),
		health:  make(map[Stream]Health),
		updates: make(chan Update, 64),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = applog.Discard()
	}
	c.logger = applog.Component(c.logger, applog.ComponentCollator)
	return c
}

// ApplyProfileUpdate replaces the profile.
func (c *Collator) ApplyProfileUpdate(p model.Profile) {
	c.state.Profile = p
	c.delivered(StreamProfile)
	c.recomputeIfReady()
}

// ApplyTransactionSetUpdate replaces the current-period transaction set.
func (c *Collator) ApplyTransactionSetUpdate(txs []model.Transaction) {
	set := make([]model.Transaction, len(txs))
	copy(set, txs)
	c.state.Transactions = set
	c.delivered(StreamTransactions)
	c.recomputeIfReady()
}

// ApplyAllTimeAggregateUpdate replaces the lifetime emergency-fund total.
func (c *Collator) ApplyAllTimeAggregateUpdate(total decimal.Decimal) {
	c.state.AllTimeEmergencyTotal = total
	c.delivered(StreamEmergency)
	c.recomputeIfReady()
}

// SetReady marks the session as established or lost. Becoming ready
// recomputes immediately from whatever has been delivered so far.
func (c *Collator) SetReady(ready bool) {
	was := c.state.Ready
	c.state.Ready = ready
	if ready && !was {
		c.recompute()
	}
}

// Reset restores the default world state and publishes one frame for it,
// even though the collator is no longer ready.
func (c *Collator) Reset() {
	c.state = model.DefaultWorldState()
	c.health = make(map[Stream]Health)
	c.recompute()
}

// Fail records a delivery failure for stream. The last good value is kept
// and no recomputation happens.
func (c *Collator) Fail(stream Stream, err error) {
	if err == nil {
		err = ErrUnknownFailure
	}
	now := c.now()
	h := c.health[stream]
	h.LastError = err.Error()
	h.FailedAt = now
	h.Failures++
	c.health[stream] = h

	c.logger.Warn("stream delivery failed",
		applog.FieldStream, string(stream),
		applog.FieldError, err,
	)

	n := Notice{Stream: stream, Err: err.Error(), At: now}
	for _, s := range c.sinks {
		if nt, ok := s.(Notifier); ok {
			nt.Notify(n)
		}
	}
}

// Apply dispatches one update to the matching operation.
func (c *Collator) Apply(u Update) {
	switch u.ctl {
	case controlReady:
		c.SetReady(true)
		return
	case controlNotReady:
		c.SetReady(false)
		return
	case controlReset:
		c.Reset()
		return
	}

	if u.Err != nil {
		c.Fail(u.Stream, u.Err)
		return
	}

	switch u.Stream {
	case StreamProfile:
		c.ApplyProfileUpdate(u.Profile)
	case StreamTransactions:
		c.ApplyTransactionSetUpdate(u.Transactions)
	case StreamEmergency:
		c.ApplyAllTimeAggregateUpdate(u.Total)
	default:
		c.logger.Warn("dropping update for unknown stream", applog.FieldStream, string(u.Stream))
	}
}

// Deliver queues u for Run. It blocks only while the queue is full.
func (c *Collator) Deliver(ctx context.Context, u Update) error {
	select {
	case c.updates <- u:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies queued updates one at a time until ctx is canceled.
func (c *Collator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-c.updates:
			c.Apply(u)
		}
	}
}

// State returns a copy of the current world state.
func (c *Collator) State() model.WorldState {
	st := c.state
	st.Transactions = append([]model.Transaction(nil), c.state.Transactions...)
	return st
}

// Last returns the most recently published frame. It is safe to call
// from any goroutine.
func (c *Collator) Last() (Frame, bool) {
	f := c.last.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

func (c *Collator) delivered(stream Stream) {
	h := c.health[stream]
	h.LastDelivery = c.now()
	h.LastError = ""
	c.health[stream] = h
}

func (c *Collator) recomputeIfReady() {
	if c.state.Ready {
		c.recompute()
	}
}

func (c *Collator) recompute() {
	snap := pipeline.Compute(c.state)
	c.seq++

	streams := make(map[Stream]Health, len(c.health))
	for k, v := range c.health {
		streams[k] = v
	}

	f := Frame{
		Seq:          c.seq,
		At:           c.now(),
		Ready:        c.state.Ready,
		Snapshot:     snap,
		Tiers:        status.Classify(snap),
		Streams:      streams,
		Transactions: c.state.Transactions,
	}
	c.last.Store(&f)

	c.logger.Debug("recomputed",
		applog.FieldSeq, f.Seq,
		"risk", snap.LifestyleRiskScore,
		"tier", string(f.Tiers.Risk),
	)

	for _, s := range c.sinks {
		s.Publish(f)
	}
}
