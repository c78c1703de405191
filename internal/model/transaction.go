package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of a money movement.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
	KindSaving  Kind = "saving"
)

// Kinds lists every known kind in display order.
var Kinds = []Kind{KindExpense, KindIncome, KindSaving}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindSaving:
		return true
	}
	return false
}

// Category is the free-form category slug stored on a transaction.
// Unknown slugs are legal and simply fall outside every bucket.
type Category string

const (
	CategoryNeeds      Category = "kebutuhan"
	CategoryWants      Category = "gaya-hidup"
	CategorySavings    Category = "tabungan"
	CategoryInvestment Category = "investasi"
	CategoryEmergency  Category = "dana-darurat"
	CategoryIncome     Category = "pemasukan"
)

// Transaction is a single categorized money movement.
type Transaction struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"type"`
	Category    Category        `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
