package pipeline

import "github.com/theirongolddev/kantong/internal/model"

// Bucket is the budget bucket a transaction counts towards.
type Bucket int

const (
	Unclassified Bucket = iota
	BucketIncome
	BucketNeeds
	BucketWants
	BucketSavings
	BucketInvestment
	BucketEmergency
)

func (b Bucket) String() string {
	switch b {
	case BucketIncome:
		return "income"
	case BucketNeeds:
		return "needs"
	case BucketWants:
		return "wants"
	case BucketSavings:
		return "savings"
	case BucketInvestment:
		return "investment"
	case BucketEmergency:
		return "emergency"
	default:
		return "unclassified"
	}
}

// Classify maps a (kind, category) pair to its bucket. Pairs outside the
// fixed table are Unclassified; they never produce an error.
func Classify(kind model.Kind, category model.Category) Bucket {
	switch kind {
	case model.KindIncome:
		return BucketIncome
	case model.KindExpense:
		switch category {
		case model.CategoryNeeds:
			return BucketNeeds
		case model.CategoryWants:
			return BucketWants
		}
	case model.KindSaving:
		switch category {
		case model.CategorySavings:
			return BucketSavings
		case model.CategoryInvestment:
			return BucketInvestment
		case model.CategoryEmergency:
			return BucketEmergency
		}
	}
	return Unclassified
}
