package model

import "github.com/shopspring/decimal"

// Realized holds what was actually transacted during the current period.
type Realized struct {
	Income              decimal.Decimal `json:"income"`
	Expense             decimal.Decimal `json:"expense"`
	CashBalance         decimal.Decimal `json:"cash_balance"`
	Needs               decimal.Decimal `json:"needs"`
	Wants               decimal.Decimal `json:"wants"`
	Savings             decimal.Decimal `json:"savings"`
	Investment          decimal.Decimal `json:"investment"`
	EmergencyThisPeriod decimal.Decimal `json:"emergency_this_period"`
	Unclassified        int             `json:"unclassified"`
}

// Snapshot is the derived dashboard for one WorldState. It is replaced
// wholesale on every recomputation and never mutated afterwards.
type Snapshot struct {
	Profile               Profile         `json:"profile"`
	Realized              Realized        `json:"realized"`
	Targets               Targets         `json:"targets"`
	AllTimeEmergencyTotal decimal.Decimal `json:"all_time_emergency_total"`
	TransactionCount      int             `json:"transaction_count"`

	// LifestyleRiskScore is the wants overspend score in [0, 100].
	LifestyleRiskScore int `json:"lifestyle_risk_score"`

	// EmergencyRatio is the lifetime completion as a percentage. It is 0
	// when EmergencyApplicable is false.
	EmergencyRatio      float64 `json:"emergency_ratio"`
	EmergencyApplicable bool    `json:"emergency_applicable"`
}

// EmergencyPercent returns the completion ratio rounded for display.
func (s Snapshot) EmergencyPercent() int {
	return int(decimal.NewFromFloat(s.EmergencyRatio).Round(0).IntPart())
}
