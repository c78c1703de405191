package feed

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kantong/internal/amqp"
	"github.com/theirongolddev/kantong/internal/collator"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/store"
)

// direct applies updates synchronously, standing in for Collator.Run.
type direct struct {
	mu sync.Mutex
	c  *collator.Collator
}

func (d *direct) Deliver(_ context.Context, u collator.Update) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.c.Apply(u)
	return nil
}

type frames struct {
	mu  sync.Mutex
	all []collator.Frame
}

func (f *frames) Publish(fr collator.Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all = append(f.all, fr)
}

func (f *frames) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.all)
}

func (f *frames) last() collator.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.all[len(f.all)-1]
}

var october = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T, s store.Store, now time.Time) (*Feed, *frames, *collator.Collator) {
	t.Helper()
	rec := &frames{}
	c := collator.New(collator.WithSink(rec))
	f := New(s, "u1", &direct{c: c}, WithClock(func() time.Time { return now }))
	return f, rec, c
}

func addTx(t *testing.T, s store.Store, id string, kind model.Kind, cat model.Category, amount int64, at time.Time) {
	t.Helper()
	require.NoError(t, s.AddTransaction(context.Background(), "u1", model.Transaction{
		ID: id, Kind: kind, Category: cat, Amount: decimal.NewFromInt(amount), Description: id, OccurredAt: at,
	}))
}

func TestStartCreatesDefaultProfileAndBecomesReady(t *testing.T) {
	mem := store.NewMemory()
	f, rec, c := setup(t, mem, october)

	require.NoError(t, f.Start(context.Background()))

	require.Equal(t, 1, rec.count(), "only SetReady should recompute during start")
	assert.True(t, c.State().Ready)

	p, ok, err := mem.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.DefaultEmergencyMonths, p.EmergencyMonths)
}

func TestRefreshDeliversOnlyChanges(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	f, rec, _ := setup(t, mem, october)
	require.NoError(t, f.Start(ctx))
	before := rec.count()

	require.NoError(t, f.Refresh(ctx))
	assert.Equal(t, before, rec.count(), "unchanged streams must not redeliver")

	addTx(t, mem, "gaji", model.KindIncome, model.CategoryIncome, 5_000_000, october.Add(-time.Hour))
	require.NoError(t, f.Refresh(ctx))
	assert.Equal(t, before+1, rec.count())
	assert.True(t, rec.last().Snapshot.Realized.Income.Equal(decimal.NewFromInt(5_000_000)))
}

func TestForgetRedeliversUnchangedStreams(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	f, rec, _ := setup(t, mem, october)
	require.NoError(t, f.Start(ctx))
	before := rec.count()

	f.Forget()
	require.NoError(t, f.Refresh(ctx))
	assert.Equal(t, before+len(collator.Streams), rec.count(), "every stream should be delivered again")

	require.NoError(t, f.Refresh(ctx))
	assert.Equal(t, before+len(collator.Streams), rec.count())
}

func TestCurrentMonthWindow(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	addTx(t, mem, "sept", model.KindExpense, model.CategoryNeeds, 100, time.Date(2026, 9, 30, 23, 0, 0, 0, time.UTC))
	addTx(t, mem, "oct", model.KindExpense, model.CategoryNeeds, 200, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	addTx(t, mem, "em-sept", model.KindSaving, model.CategoryEmergency, 300, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC))

	f, rec, _ := setup(t, mem, october)
	require.NoError(t, f.Start(ctx))

	s := rec.last().Snapshot
	assert.True(t, s.Realized.Expense.Equal(decimal.NewFromInt(200)))
	assert.True(t, s.Realized.EmergencyThisPeriod.IsZero())
	assert.True(t, s.AllTimeEmergencyTotal.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 1, s.TransactionCount)
}

func TestReadFailureKeepsLastValueAndRecovers(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	addTx(t, mem, "em", model.KindSaving, model.CategoryEmergency, 1_000, october)

	f, rec, c := setup(t, mem, october)
	require.NoError(t, f.Start(ctx))
	before := rec.count()

	mem.FailNextRead(errors.New("quota exceeded"))
	require.NoError(t, f.Refresh(ctx, collator.StreamEmergency))
	assert.Equal(t, before, rec.count())
	assert.True(t, c.State().AllTimeEmergencyTotal.Equal(decimal.NewFromInt(1_000)))

	// Same value again, but it must be redelivered to clear the failure.
	require.NoError(t, f.Refresh(ctx, collator.StreamEmergency))
	require.Equal(t, before+1, rec.count())
	assert.False(t, rec.last().Streams[collator.StreamEmergency].Stale())
}

func TestStartFailsWhenProfileUnavailable(t *testing.T) {
	mem := store.NewMemory()
	mem.FailNextRead(errors.New("offline"))
	f, rec, c := setup(t, mem, october)

	err := f.Start(context.Background())
	require.Error(t, err)
	assert.False(t, c.State().Ready)
	assert.Equal(t, 0, rec.count())
}

type fakeSubscriber struct {
	changes []amqp.Change
}

func (s *fakeSubscriber) ConsumeChanges(_ context.Context, user string, handler func(amqp.Change) error) error {
	for _, ch := range s.changes {
		if ch.User != user {
			continue
		}
		if err := handler(ch); err != nil {
			return err
		}
	}
	return nil
}

func TestListenRefreshesNamedStream(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	f, rec, _ := setup(t, mem, october)
	require.NoError(t, f.Start(ctx))
	before := rec.count()

	require.NoError(t, mem.SaveProfile(ctx, "u1", model.Profile{MonthlyIncome: decimal.NewFromInt(4_000_000), EmergencyMonths: 6}))
	sub := &fakeSubscriber{changes: []amqp.Change{
		amqp.NewChange("someone-else", "profile"),
		amqp.NewChange("u1", "profile"),
	}}

	require.NoError(t, f.Listen(ctx, sub))
	require.Equal(t, before+1, rec.count())
	assert.True(t, rec.last().Snapshot.Targets.Needs.Equal(decimal.NewFromInt(2_000_000)))

	err := f.Listen(ctx, &fakeSubscriber{changes: []amqp.Change{amqp.NewChange("u1", "bogus")}})
	assert.Error(t, err)
}

func TestWatchPicksUpSQLiteWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kantong.db")
	sq, err := store.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer sq.Close()

	f, rec, _ := setup(t, sq, time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.Start(ctx))
	before := rec.count()

	done := make(chan error, 1)
	go func() { done <- f.Watch(ctx, dbPath, 20*time.Millisecond) }()
	time.Sleep(50 * time.Millisecond)

	addTx(t, sq, "kopi", model.KindExpense, model.CategoryWants, 25_000, time.Now())

	require.Eventually(t, func() bool { return rec.count() > before }, 3*time.Second, 20*time.Millisecond)
	assert.True(t, rec.last().Snapshot.Realized.Wants.Equal(decimal.NewFromInt(25_000)))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
