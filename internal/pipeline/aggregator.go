// Package pipeline derives dashboard snapshots from collated budget state.
package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/model"
)

// Aggregate folds a transaction set into realized per-bucket totals.
// The fold only adds, so the order of txs does not matter.
func Aggregate(txs []model.Transaction) model.Realized {
	var r model.Realized

	for _, tx := range txs {
		switch tx.Kind {
		case model.KindIncome:
			r.Income = r.Income.Add(tx.Amount)
		case model.KindExpense:
			r.Expense = r.Expense.Add(tx.Amount)
		}

		switch Classify(tx.Kind, tx.Category) {
		case BucketNeeds:
			r.Needs = r.Needs.Add(tx.Amount)
		case BucketWants:
			r.Wants = r.Wants.Add(tx.Amount)
		case BucketSavings:
			r.Savings = r.Savings.Add(tx.Amount)
		case BucketInvestment:
			r.Investment = r.Investment.Add(tx.Amount)
		case BucketEmergency:
			r.EmergencyThisPeriod = r.EmergencyThisPeriod.Add(tx.Amount)
		case Unclassified:
			r.Unclassified++
		}
	}

	r.CashBalance = r.Income.Sub(r.Expense)
	return r
}

// FilterByTime returns transactions that occurred within [since, until).
func FilterByTime(txs []model.Transaction, since, until time.Time) []model.Transaction {
	var result []model.Transaction
	for _, tx := range txs {
		if !tx.OccurredAt.Before(since) && tx.OccurredAt.Before(until) {
			result = append(result, tx)
		}
	}
	return result
}

// FilterByCategory returns transactions whose category equals c.
func FilterByCategory(txs []model.Transaction, c model.Category) []model.Transaction {
	var result []model.Transaction
	for _, tx := range txs {
		if tx.Category == c {
			result = append(result, tx)
		}
	}
	return result
}

// MonthStart returns local midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DayTotals is one calendar day of cash flow.
type DayTotals struct {
	Date    time.Time
	Income  decimal.Decimal
	Expense decimal.Decimal
	Saving  decimal.Decimal
	Count   int
}

// AggregateDays buckets txs into calendar days in since's location. Every
// day in [since, until) gets an entry, in chronological order, so quiet
// days show up as zeros.
func AggregateDays(txs []model.Transaction, since, until time.Time) []DayTotals {
	loc := since.Location()
	start := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, loc)

	var days []DayTotals
	index := make(map[string]int)
	for d := start; d.Before(until); d = d.AddDate(0, 0, 1) {
		index[d.Format("2006-01-02")] = len(days)
		days = append(days, DayTotals{Date: d})
	}

	for _, tx := range FilterByTime(txs, since, until) {
		i, ok := index[tx.OccurredAt.In(loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		day := &days[i]
		day.Count++
		switch tx.Kind {
		case model.KindIncome:
			day.Income = day.Income.Add(tx.Amount)
		case model.KindExpense:
			day.Expense = day.Expense.Add(tx.Amount)
		case model.KindSaving:
			day.Saving = day.Saving.Add(tx.Amount)
		}
	}
	return days
}
