package pipeline

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/model"
)

func rp(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func tx(kind model.Kind, cat model.Category, amount int64) model.Transaction {
	return model.Transaction{Kind: kind, Category: cat, Amount: rp(amount)}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		kind model.Kind
		cat  model.Category
		want Bucket
	}{
		{model.KindExpense, model.CategoryNeeds, BucketNeeds},
		{model.KindExpense, model.CategoryWants, BucketWants},
		{model.KindSaving, model.CategorySavings, BucketSavings},
		{model.KindSaving, model.CategoryInvestment, BucketInvestment},
		{model.KindSaving, model.CategoryEmergency, BucketEmergency},
		{model.KindIncome, model.CategoryIncome, BucketIncome},
		{model.KindIncome, "bonus", BucketIncome},
		{model.KindExpense, model.CategorySavings, Unclassified},
		{model.KindSaving, model.CategoryNeeds, Unclassified},
		{model.KindExpense, "hobi", Unclassified},
		{"transfer", model.CategoryNeeds, Unclassified},
	}

	for _, tt := range tests {
		if got := Classify(tt.kind, tt.cat); got != tt.want {
			t.Errorf("Classify(%q, %q) = %s, want %s", tt.kind, tt.cat, got, tt.want)
		}
	}
}

func TestAllocateSumsToIncome(t *testing.T) {
	for _, income := range []string{"0", "1", "3333333", "5000000", "1234567.89", "0.07"} {
		p := model.Profile{MonthlyIncome: decimal.RequireFromString(income), EmergencyMonths: 6}
		tg := Allocate(p)

		sum := tg.Needs.Add(tg.Wants).Add(tg.Savings).Add(tg.Investment)
		if !sum.Equal(p.MonthlyIncome) {
			t.Errorf("income %s: targets sum to %s", income, sum)
		}
		if !tg.Needs.Equal(p.MonthlyIncome.Mul(decimal.RequireFromString("0.5"))) {
			t.Errorf("income %s: needs = %s", income, tg.Needs)
		}
		if !tg.EmergencyLifetime.Equal(p.MonthlyIncome.Mul(rp(6))) {
			t.Errorf("income %s: emergency = %s", income, tg.EmergencyLifetime)
		}
	}
}

func TestAllocateZeroIncome(t *testing.T) {
	tg := Allocate(model.DefaultProfile())
	for name, v := range map[string]decimal.Decimal{
		"needs": tg.Needs, "wants": tg.Wants, "savings": tg.Savings,
		"investment": tg.Investment, "emergency": tg.EmergencyLifetime,
	} {
		if !v.IsZero() {
			t.Errorf("%s = %s, want 0", name, v)
		}
	}
}

func TestAggregate(t *testing.T) {
	txs := []model.Transaction{
		tx(model.KindIncome, model.CategoryIncome, 5_000_000),
		tx(model.KindExpense, model.CategoryNeeds, 2_000_000),
		tx(model.KindExpense, model.CategoryWants, 1_800_000),
		tx(model.KindSaving, model.CategorySavings, 300_000),
		tx(model.KindSaving, model.CategoryInvestment, 200_000),
		tx(model.KindSaving, model.CategoryEmergency, 100_000),
		tx(model.KindExpense, "hobi", 50_000),
	}

	r := Aggregate(txs)

	checks := []struct {
		name string
		got  decimal.Decimal
		want int64
	}{
		{"income", r.Income, 5_000_000},
		{"expense", r.Expense, 3_850_000},
		{"balance", r.CashBalance, 1_150_000},
		{"needs", r.Needs, 2_000_000},
		{"wants", r.Wants, 1_800_000},
		{"savings", r.Savings, 300_000},
		{"investment", r.Investment, 200_000},
		{"emergency", r.EmergencyThisPeriod, 100_000},
	}
	for _, c := range checks {
		if !c.got.Equal(rp(c.want)) {
			t.Errorf("%s = %s, want %d", c.name, c.got, c.want)
		}
	}
	if r.Unclassified != 1 {
		t.Errorf("Unclassified = %d, want 1", r.Unclassified)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	txs := []model.Transaction{
		tx(model.KindExpense, model.CategoryWants, 10),
		tx(model.KindIncome, model.CategoryIncome, 100),
		tx(model.KindExpense, model.CategoryNeeds, 25),
		tx(model.KindSaving, model.CategoryEmergency, 5),
	}
	reversed := make([]model.Transaction, len(txs))
	for i := range txs {
		reversed[len(txs)-1-i] = txs[i]
	}

	a, b := Aggregate(txs), Aggregate(reversed)
	if !a.CashBalance.Equal(b.CashBalance) || !a.Wants.Equal(b.Wants) || !a.Needs.Equal(b.Needs) {
		t.Fatalf("aggregate depends on order: %+v vs %+v", a, b)
	}
}

func TestAggregateUnknownCategoryOnlyCountsByKind(t *testing.T) {
	r := Aggregate([]model.Transaction{
		tx(model.KindExpense, "misteri", 700),
		tx(model.KindIncome, "misteri", 900),
		tx(model.KindSaving, "misteri", 400),
	})

	if !r.Expense.Equal(rp(700)) || !r.Income.Equal(rp(900)) {
		t.Fatalf("kind totals = %s/%s, want 900/700", r.Income, r.Expense)
	}
	for _, v := range []decimal.Decimal{r.Needs, r.Wants, r.Savings, r.Investment, r.EmergencyThisPeriod} {
		if !v.IsZero() {
			t.Fatalf("bucket total %s, want 0", v)
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name                  string
		wants, target, income int64
		want                  int
	}{
		{"under budget", 750_000, 1_500_000, 5_000_000, 50},
		{"over budget caps", 1_800_000, 1_500_000, 5_000_000, 100},
		{"rounds half up", 605, 1000, 10_000, 61},
		{"rounds down", 604, 1000, 10_000, 60},
		{"zero target with spending", 10, 0, 1000, 100},
		{"zero target no income", 10, 0, 0, 0},
		{"nothing spent", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(rp(tt.wants), rp(tt.target), rp(tt.income))
			if got != tt.want {
				t.Fatalf("Score = %d, want %d", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Fatalf("Score %d out of range", got)
			}
		})
	}
}

func TestEmergencyRatio(t *testing.T) {
	ratio, ok := EmergencyRatio(rp(3_000_000), rp(6_000_000))
	if !ok || ratio != 50 {
		t.Fatalf("ratio = %v (ok=%v), want 50", ratio, ok)
	}

	ratio, ok = EmergencyRatio(rp(3_000_000), decimal.Zero)
	if ok || ratio != 0 {
		t.Fatalf("zero target ratio = %v (ok=%v), want 0/false", ratio, ok)
	}
}

func TestComputeSpecExample(t *testing.T) {
	ws := model.WorldState{
		Profile: model.Profile{MonthlyIncome: rp(5_000_000), EmergencyMonths: 6},
		Transactions: []model.Transaction{
			tx(model.KindExpense, model.CategoryNeeds, 2_000_000),
			tx(model.KindExpense, model.CategoryWants, 1_800_000),
		},
		AllTimeEmergencyTotal: decimal.Zero,
		Ready:                 true,
	}

	s := Compute(ws)
	if !s.Targets.Wants.Equal(rp(1_500_000)) {
		t.Fatalf("target wants = %s", s.Targets.Wants)
	}
	if !s.Realized.Wants.Equal(rp(1_800_000)) {
		t.Fatalf("realized wants = %s", s.Realized.Wants)
	}
	if s.LifestyleRiskScore != 100 {
		t.Fatalf("risk = %d, want 100", s.LifestyleRiskScore)
	}
	if !s.Realized.CashBalance.Equal(rp(-3_800_000)) {
		t.Fatalf("balance = %s", s.Realized.CashBalance)
	}
}

func TestComputeIdempotent(t *testing.T) {
	ws := model.WorldState{
		Profile: model.Profile{MonthlyIncome: rp(1_000_000), EmergencyMonths: 3},
		Transactions: []model.Transaction{
			tx(model.KindIncome, model.CategoryIncome, 1_000_000),
			tx(model.KindExpense, model.CategoryWants, 123_456),
		},
		AllTimeEmergencyTotal: rp(250_000),
	}

	first, second := Compute(ws), Compute(ws)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recompute differs:\n%+v\n%+v", first, second)
	}
}

func TestComputeDefaultStateIsZero(t *testing.T) {
	s := Compute(model.DefaultWorldState())
	if !s.Realized.Income.IsZero() || !s.Realized.Expense.IsZero() || !s.Targets.EmergencyLifetime.IsZero() {
		t.Fatalf("default snapshot not zero: %+v", s)
	}
	if s.LifestyleRiskScore != 0 || s.EmergencyRatio != 0 || s.EmergencyApplicable {
		t.Fatalf("default scores = %d/%v/%v", s.LifestyleRiskScore, s.EmergencyRatio, s.EmergencyApplicable)
	}
}

func TestFilterByTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []model.Transaction{
		{ID: "before", OccurredAt: base.Add(-time.Second)},
		{ID: "start", OccurredAt: base},
		{ID: "mid", OccurredAt: base.Add(48 * time.Hour)},
		{ID: "end", OccurredAt: base.AddDate(0, 1, 0)},
	}

	got := FilterByTime(txs, base, base.AddDate(0, 1, 0))
	if len(got) != 2 || got[0].ID != "start" || got[1].ID != "mid" {
		t.Fatalf("FilterByTime = %+v", got)
	}
}

func TestMonthStart(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	got := MonthStart(time.Date(2026, 10, 19, 15, 4, 5, 0, loc))
	want := time.Date(2026, 10, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("MonthStart = %s, want %s", got, want)
	}
}

func TestAggregateDays(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	since := time.Date(2026, 10, 1, 0, 0, 0, 0, loc)
	until := since.AddDate(0, 0, 3)

	at := func(day, hour int) time.Time { return time.Date(2026, 10, day, hour, 0, 0, 0, loc) }
	txs := []model.Transaction{
		{Kind: model.KindIncome, Amount: rp(1000), OccurredAt: at(1, 9)},
		{Kind: model.KindExpense, Amount: rp(200), OccurredAt: at(1, 23)},
		{Kind: model.KindSaving, Amount: rp(50), OccurredAt: at(3, 8)},
		// 2 Oct 23:30 WIB is still 2 Oct even though it is 16:30 UTC.
		{Kind: model.KindExpense, Amount: rp(30), OccurredAt: time.Date(2026, 10, 2, 16, 30, 0, 0, time.UTC)},
		{Kind: model.KindExpense, Amount: rp(999), OccurredAt: at(4, 0)},
	}

	days := AggregateDays(txs, since, until)
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	if !days[0].Income.Equal(rp(1000)) || !days[0].Expense.Equal(rp(200)) || days[0].Count != 2 {
		t.Errorf("day 1 = %+v", days[0])
	}
	if !days[1].Expense.Equal(rp(30)) || days[1].Count != 1 {
		t.Errorf("day 2 = %+v", days[1])
	}
	if !days[2].Saving.Equal(rp(50)) || !days[2].Expense.IsZero() {
		t.Errorf("day 3 = %+v", days[2])
	}
}
