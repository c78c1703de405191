package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/model"
)

// Fixed 50/30/10/10 allocation policy. These are not user configurable.
var (
	NeedsShare      = decimal.RequireFromString("0.50")
	WantsShare      = decimal.RequireFromString("0.30")
	SavingsShare    = decimal.RequireFromString("0.10")
	InvestmentShare = decimal.RequireFromString("0.10")
)

// Allocate derives the per-bucket targets from a profile.
func Allocate(p model.Profile) model.Targets {
	income := p.MonthlyIncome
	return model.Targets{
		Needs:             income.Mul(NeedsShare),
		Wants:             income.Mul(WantsShare),
		Savings:           income.Mul(SavingsShare),
		Investment:        income.Mul(InvestmentShare),
		EmergencyLifetime: income.Mul(decimal.NewFromInt(int64(p.EmergencyMonths))),
	}
}
