package pipeline

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Score computes the lifestyle overspend risk: wants spending as a
// percentage of the wants target, capped at 100 and rounded half-up.
// With no wants budget any wants spending is maximal risk, provided an
// income is configured at all.
func Score(realizedWants, targetWants, monthlyIncome decimal.Decimal) int {
	var raw decimal.Decimal
	switch {
	case targetWants.IsPositive():
		raw = decimal.Min(hundred, realizedWants.Div(targetWants).Mul(hundred))
	case realizedWants.IsPositive() && monthlyIncome.IsPositive():
		raw = hundred
	default:
		raw = decimal.Zero
	}
	if raw.IsNegative() {
		raw = decimal.Zero
	}
	return int(raw.Round(0).IntPart())
}

// EmergencyRatio returns lifetime emergency contributions as a percentage
// of the lifetime target. ok is false when the target is not positive, in
// which case the ratio is 0.
func EmergencyRatio(total, target decimal.Decimal) (ratio float64, ok bool) {
	if !target.IsPositive() {
		return 0, false
	}
	return total.Div(target).Mul(hundred).InexactFloat64(), true
}
