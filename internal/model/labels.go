package model

var categoryLabels = map[Category]string{
	CategoryNeeds:      "Kebutuhan",
	CategoryWants:      "Gaya Hidup",
	CategorySavings:    "Tabungan",
	CategoryInvestment: "Investasi",
	CategoryEmergency:  "Dana Darurat",
	CategoryIncome:     "Pemasukan",
}

var kindLabels = map[Kind]string{
	KindExpense: "Pengeluaran",
	KindIncome:  "Pemasukan",
	KindSaving:  "Tabungan",
}

// CategoryLabel returns the display name of c, or the raw slug when unknown.
func CategoryLabel(c Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// KindLabel returns the display name of k, or the raw value when unknown.
func KindLabel(k Kind) string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

// CategoryOption is one selectable category for a kind.
type CategoryOption struct {
	Category Category
	Label    string
}

var categoryOptions = map[Kind][]CategoryOption{
	KindExpense: {
		{CategoryNeeds, "Kebutuhan (50%)"},
		{CategoryWants, "Gaya Hidup (30%)"},
	},
	KindIncome: {
		{CategoryIncome, "Gaji/Pemasukan"},
	},
	KindSaving: {
		{CategorySavings, "Tabungan (10%)"},
		{CategoryInvestment, "Investasi (10%)"},
		{CategoryEmergency, "Dana Darurat"},
	},
}

// CategoryOptions returns the categories a user may pick for kind k.
func CategoryOptions(k Kind) []CategoryOption {
	opts := categoryOptions[k]
	out := make([]CategoryOption, len(opts))
	copy(out, opts)
	return out
}

// AllowsCategory reports whether c is a selectable category for k.
func AllowsCategory(k Kind, c Category) bool {
	for _, o := range categoryOptions[k] {
		if o.Category == c {
			return true
		}
	}
	return false
}
