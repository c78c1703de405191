package collator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/status"
)

type recorder struct {
	mu      sync.Mutex
	frames  []Frame
	notices []Notice
}

func (r *recorder) Publish(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) lastFrame() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[len(r.frames)-1]
}

func newTestCollator() (*Collator, *recorder) {
	rec := &recorder{}
	fixed := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	c := New(WithSink(rec), WithClock(func() time.Time { return fixed }))
	return c, rec
}

func rp(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestNoRecomputeBeforeReady(t *testing.T) {
	c, rec := newTestCollator()

	c.ApplyProfileUpdate(model.Profile{MonthlyIncome: rp(5_000_000), EmergencyMonths: 6})
	c.ApplyTransactionSetUpdate(nil)
	c.ApplyAllTimeAggregateUpdate(rp(100))
	assert.Equal(t, 0, rec.count())

	c.SetReady(true)
	require.Equal(t, 1, rec.count())

	f := rec.lastFrame()
	assert.True(t, f.Ready)
	assert.True(t, f.Snapshot.Targets.Wants.Equal(rp(1_500_000)))
	assert.True(t, f.Snapshot.AllTimeEmergencyTotal.Equal(rp(100)))
}

func TestEveryDeliveryRecomputesWhenReady(t *testing.T) {
	c, rec := newTestCollator()
	c.SetReady(true)

	c.ApplyProfileUpdate(model.Profile{MonthlyIncome: rp(5_000_000), EmergencyMonths: 6})
	c.ApplyTransactionSetUpdate([]model.Transaction{
		{ID: "a", Kind: model.KindExpense, Category: model.CategoryNeeds, Amount: rp(2_000_000)},
		{ID: "b", Kind: model.KindExpense, Category: model.CategoryWants, Amount: rp(1_800_000)},
	})

	require.Equal(t, 3, rec.count())
	f := rec.lastFrame()
	assert.Equal(t, int64(3), f.Seq)
	assert.Equal(t, 100, f.Snapshot.LifestyleRiskScore)
	assert.Equal(t, status.Critical, f.Tiers.Risk)
	assert.Equal(t, status.Critical, f.Tiers.Banner)
	assert.Len(t, f.Transactions, 2)
}

func TestLatestValueWins(t *testing.T) {
	c, rec := newTestCollator()
	c.SetReady(true)

	c.ApplyAllTimeAggregateUpdate(rp(1))
	c.ApplyAllTimeAggregateUpdate(rp(3))
	c.ApplyAllTimeAggregateUpdate(rp(2))

	assert.True(t, rec.lastFrame().Snapshot.AllTimeEmergencyTotal.Equal(rp(2)))
	assert.True(t, c.State().AllTimeEmergencyTotal.Equal(rp(2)))
}

func TestTransactionSetIsCopied(t *testing.T) {
	c, rec := newTestCollator()
	c.SetReady(true)

	txs := []model.Transaction{{ID: "a", Kind: model.KindIncome, Amount: rp(10)}}
	c.ApplyTransactionSetUpdate(txs)
	txs[0].Amount = rp(999)

	assert.True(t, rec.lastFrame().Snapshot.Realized.Income.Equal(rp(10)))
}

func TestFailKeepsLastGoodValue(t *testing.T) {
	c, rec := newTestCollator()
	c.SetReady(true)
	c.ApplyAllTimeAggregateUpdate(rp(500))
	before := rec.count()

	c.Fail(StreamEmergency, errors.New("permission denied"))

	assert.Equal(t, before, rec.count(), "failed delivery must not recompute")
	assert.True(t, c.State().AllTimeEmergencyTotal.Equal(rp(500)))
	require.Len(t, rec.notices, 1)
	assert.Equal(t, StreamEmergency, rec.notices[0].Stream)
	assert.Equal(t, "permission denied", rec.notices[0].Err)

	// Other streams keep flowing and carry the stale marker along.
	c.ApplyProfileUpdate(model.Profile{MonthlyIncome: rp(1_000), EmergencyMonths: 1})
	f := rec.lastFrame()
	assert.True(t, f.Streams[StreamEmergency].Stale())
	assert.Equal(t, 1, f.Streams[StreamEmergency].Failures)
	assert.False(t, f.Streams[StreamProfile].Stale())

	// A later good delivery clears the error.
	c.ApplyAllTimeAggregateUpdate(rp(600))
	assert.False(t, rec.lastFrame().Streams[StreamEmergency].Stale())
}

func TestResetPublishesZeroSnapshot(t *testing.T) {
	c, rec := newTestCollator()
	c.SetReady(true)
	c.ApplyProfileUpdate(model.Profile{MonthlyIncome: rp(5_000_000), EmergencyMonths: 12})
	c.ApplyTransactionSetUpdate([]model.Transaction{{ID: "x", Kind: model.KindIncome, Amount: rp(5_000_000)}})
	c.ApplyAllTimeAggregateUpdate(rp(7_000_000))
	before := rec.count()

	c.Reset()

	require.Equal(t, before+1, rec.count())
	f := rec.lastFrame()
	s := f.Snapshot
	assert.False(t, f.Ready)
	assert.True(t, s.Realized.Income.IsZero())
	assert.True(t, s.Realized.Expense.IsZero())
	assert.True(t, s.Realized.CashBalance.IsZero())
	assert.True(t, s.Targets.Needs.IsZero())
	assert.True(t, s.Targets.EmergencyLifetime.IsZero())
	assert.True(t, s.AllTimeEmergencyTotal.IsZero())
	assert.Equal(t, model.DefaultEmergencyMonths, s.Profile.EmergencyMonths)
	assert.Equal(t, 0, s.LifestyleRiskScore)
	assert.Equal(t, 0.0, s.EmergencyRatio)
	assert.Empty(t, f.Transactions)
	assert.Equal(t, status.Tiers{Risk: status.DataMissing, Banner: status.DataMissing, Emergency: status.DataMissing}, f.Tiers)

	// Not ready after reset: deliveries no longer recompute.
	c.ApplyAllTimeAggregateUpdate(rp(1))
	assert.Equal(t, before+1, rec.count())
}

func TestRunAppliesDeliveriesInOrder(t *testing.T) {
	c, rec := newTestCollator()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.NoError(t, c.Deliver(ctx, ProfileUpdate(model.Profile{MonthlyIncome: rp(1_000_000), EmergencyMonths: 6})))
	require.NoError(t, c.Deliver(ctx, AggregateUpdate(rp(3_000_000))))
	require.NoError(t, c.Deliver(ctx, FailedUpdate(StreamTransactions, errors.New("offline"))))
	require.NoError(t, c.Deliver(ctx, ReadyUpdate(true)))

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	f, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, 50, f.Snapshot.EmergencyPercent())
	assert.Equal(t, status.Progress, f.Tiers.Emergency)
	assert.True(t, f.Streams[StreamTransactions].Stale())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestApplyUnknownStreamIsIgnored(t *testing.T) {
	c, rec := newTestCollator()
	c.SetReady(true)
	before := rec.count()

	c.Apply(Update{Stream: "bogus"})
	assert.Equal(t, before, rec.count())
}

func TestParseStream(t *testing.T) {
	s, ok := ParseStream("transactions")
	assert.True(t, ok)
	assert.Equal(t, StreamTransactions, s)

	_, ok = ParseStream("nope")
	assert.False(t, ok)
}

func TestNilFailureKeepsLastGoodValue(t *testing.T) {
	c, rec := newTestCollator()
	c.SetReady(true)
	c.ApplyProfileUpdate(model.Profile{MonthlyIncome: rp(5_000_000), EmergencyMonths: 6})
	before := rec.count()

	c.Apply(FailedUpdate(StreamProfile, nil))
	require.NotPanics(t, func() { c.Fail(StreamProfile, nil) })

	assert.Equal(t, before, rec.count())
	assert.True(t, c.State().Profile.MonthlyIncome.Equal(rp(5_000_000)))
	require.Len(t, rec.notices, 2)
	assert.Equal(t, ErrUnknownFailure.Error(), rec.notices[0].Err)

	c.ApplyTransactionSetUpdate(nil)
	h := rec.lastFrame().Streams[StreamProfile]
	assert.True(t, h.Stale())
	assert.Equal(t, 2, h.Failures)
}

func TestWithBufferBoundsDeliveryQueue(t *testing.T) {
	c := New(WithBuffer(1))

	require.NoError(t, c.Deliver(context.Background(), ReadyUpdate(true)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Deliver(ctx, ReadyUpdate(true))
	assert.ErrorIs(t, err, context.Canceled, "second delivery should wait on a full queue")
}
