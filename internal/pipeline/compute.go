package pipeline

import "github.com/theirongolddev/kantong/internal/model"

// Compute derives the dashboard snapshot for ws. It reads nothing but ws,
// so equal states always yield equal snapshots.
func Compute(ws model.WorldState) model.Snapshot {
	targets := Allocate(ws.Profile)
	realized := Aggregate(ws.Transactions)
	ratio, applicable := EmergencyRatio(ws.AllTimeEmergencyTotal, targets.EmergencyLifetime)

	return model.Snapshot{
		Profile:               ws.Profile,
		Realized:              realized,
		Targets:               targets,
		AllTimeEmergencyTotal: ws.AllTimeEmergencyTotal,
		TransactionCount:      len(ws.Transactions),
		LifestyleRiskScore:    Score(realized.Wants, targets.Wants, ws.Profile.MonthlyIncome),
		EmergencyRatio:        ratio,
		EmergencyApplicable:   applicable,
	}
}
