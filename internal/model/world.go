package model

import "github.com/shopspring/decimal"

// WorldState is the collated view of the three input streams.
type WorldState struct {
	Profile               Profile
	Transactions          []Transaction
	AllTimeEmergencyTotal decimal.Decimal
	Ready                 bool
}

// DefaultWorldState returns the empty state used at startup and after a reset.
func DefaultWorldState() WorldState {
	return WorldState{
		Profile:               DefaultProfile(),
		Transactions:          []Transaction{},
		AllTimeEmergencyTotal: decimal.Zero,
	}
}
