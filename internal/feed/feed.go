// Package feed turns store reads into collator stream deliveries. It
// behaves like a subscription: a stream is only redelivered when its
// value changed or its previous delivery failed.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/kantong/internal/collator"
	applog "github.com/theirongolddev/kantong/internal/log"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/pipeline"
	"github.com/theirongolddev/kantong/internal/store"
)

// Deliverer accepts stream updates. *collator.Collator satisfies it.
type Deliverer interface {
	Deliver(ctx context.Context, u collator.Update) error
}

// DelivererFunc adapts a function to Deliverer. Wrapping Collator.Apply
// gives synchronous delivery for one-shot reads.
type DelivererFunc func(ctx context.Context, u collator.Update) error

// Deliver calls f(ctx, u).
func (f DelivererFunc) Deliver(ctx context.Context, u collator.Update) error { return f(ctx, u) }

// Option configures a Feed.
type Option func(*Feed)

// WithClock overrides the clock used for the current-month window.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) { f.logger = l }
}

// Feed reads one user's three streams from a store.
type Feed struct {
	store  store.Store
	user   string
	out    Deliverer
	now    func() time.Time
	logger *slog.Logger

	// mu serializes refreshes so deliveries for a stream stay in read order.
	mu   sync.Mutex
	last map[collator.Stream]string
}

// New returns a feed delivering user's streams from s to out.
func New(s store.Store, user string, out Deliverer, opts ...Option) *Feed {
	f := &Feed{
		store: s,
		user:  user,
		out:   out,
		now:   time.Now,
		last:  make(map[collator.Stream]string),
	}
	for _, o := range opts {
		o(f)
	}
	if f.logger == nil {
		f.logger = applog.Discard()
	}
	f.logger = applog.Component(f.logger, applog.ComponentFeed).With(applog.FieldUser, user)
	return f
}

// Start performs the initial load of all streams and marks the collator
// ready once the profile has been delivered.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ok, err := f.refreshLocked(ctx, collator.StreamProfile)
	if err != nil {
		return err
	}
	for _, s := range []collator.Stream{collator.StreamTransactions, collator.StreamEmergency} {
		if _, err := f.refreshLocked(ctx, s); err != nil {
			return err
		}
	}
	if !ok {
		return fmt.Errorf("feed: loading profile for %s failed", f.user)
	}
	return f.out.Deliver(ctx, collator.ReadyUpdate(true))
}

// Refresh re-reads the given streams (all of them when none are named)
// and delivers the ones that changed. Read failures are delivered as
// failed updates; only a canceled ctx is returned as an error.
func (f *Feed) Refresh(ctx context.Context, streams ...collator.Stream) error {
	if len(streams) == 0 {
		streams = collator.Streams
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range streams {
		if _, err := f.refreshLocked(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Forget drops the remembered values so the next refresh redelivers
// every stream, giving a manual reload a fresh frame.
func (f *Feed) Forget() {
	f.mu.Lock()
	f.last = make(map[collator.Stream]string)
	f.mu.Unlock()
}

func (f *Feed) refreshLocked(ctx context.Context, s collator.Stream) (bool, error) {
	start := time.Now()
	u, digest, err := f.read(ctx, s)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		delete(f.last, s)
		f.logger.Warn("stream read failed",
			applog.FieldOperation, applog.OpRefresh,
			applog.FieldStream, string(s),
			applog.FieldError, err,
		)
		return false, f.out.Deliver(ctx, collator.FailedUpdate(s, err))
	}

	if prev, seen := f.last[s]; seen && prev == digest {
		return true, nil
	}
	f.last[s] = digest

	f.logger.Debug("stream changed",
		applog.FieldStream, string(s),
		applog.FieldDuration, time.Since(start).Milliseconds(),
	)
	return true, f.out.Deliver(ctx, u)
}

func (f *Feed) read(ctx context.Context, s collator.Stream) (collator.Update, string, error) {
	switch s {
	case collator.StreamProfile:
		p, err := f.store.EnsureProfile(ctx, f.user)
		if err != nil {
			return collator.Update{}, "", err
		}
		return collator.ProfileUpdate(p), p.MonthlyIncome.String() + "/" + fmt.Sprint(p.EmergencyMonths), nil

	case collator.StreamTransactions:
		since := pipeline.MonthStart(f.now())
		txs, err := f.store.TransactionsSince(ctx, f.user, since)
		if err != nil {
			return collator.Update{}, "", err
		}
		return collator.TransactionsUpdate(txs), since.String() + "|" + digestTransactions(txs), nil

	case collator.StreamEmergency:
		total, err := f.store.CategoryTotal(ctx, f.user, model.CategoryEmergency)
		if err != nil {
			return collator.Update{}, "", err
		}
		return collator.AggregateUpdate(total), total.String(), nil
	}
	return collator.Update{}, "", fmt.Errorf("feed: unknown stream %q", s)
}

func digestTransactions(txs []model.Transaction) string {
	var b strings.Builder
	for _, tx := range txs {
		fmt.Fprintf(&b, "%s:%s:%s:%s:%d:%s;",
			tx.ID, tx.Kind, tx.Category, tx.Amount.String(), tx.OccurredAt.UnixMilli(), tx.Description)
	}
	return b.String()
}
