package model

import "github.com/shopspring/decimal"

// DefaultEmergencyMonths is the emergency-fund horizon of a fresh profile.
const DefaultEmergencyMonths = 6

// Profile is the per-user budgeting input.
type Profile struct {
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	EmergencyMonths int             `json:"emergency_months"`
}

// DefaultProfile returns the profile created for users who have none.
func DefaultProfile() Profile {
	return Profile{
		MonthlyIncome:   decimal.Zero,
		EmergencyMonths: DefaultEmergencyMonths,
	}
}

// HasIncome reports whether a monthly income has been configured.
func (p Profile) HasIncome() bool {
	return p.MonthlyIncome.IsPositive()
}

// Targets holds the ideal allocation per bucket.
type Targets struct {
	Needs             decimal.Decimal `json:"needs"`
	Wants             decimal.Decimal `json:"wants"`
	Savings           decimal.Decimal `json:"savings"`
	Investment        decimal.Decimal `json:"investment"`
	EmergencyLifetime decimal.Decimal `json:"emergency_lifetime"`
}

// SavingsAllocation is the monthly amount set aside for savings and investment combined.
func (t Targets) SavingsAllocation() decimal.Decimal {
	return t.Savings.Add(t.Investment)
}
