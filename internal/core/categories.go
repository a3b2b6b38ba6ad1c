package core

// DefaultCategory is assigned when a transaction arrives with an empty or
// unknown category.
const DefaultCategory = "Other"

// categories is the closed set the mobile clients offer in their pickers.
var categories = []string{
	"Food",
	"Transport",
	"Housing",
	"Utilities",
	"Entertainment",
	"Health",
	"Education",
	"Shopping",
	"Taxes",
	"Debts",
	DefaultCategory,
}

// fixedCategories are the non-discretionary buckets used when computing
// affordability margins.
var fixedCategories = map[string]bool{
	"Housing":   true,
	"Utilities": true,
	"Taxes":     true,
	"Debts":     true,
}

// Categories returns the closed category set in display order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// NormalizeCategory maps unknown or empty categories to DefaultCategory.
func NormalizeCategory(c string) string {
	for _, known := range categories {
		if c == known {
			return c
		}
	}
	return DefaultCategory
}

// IsFixedCategory reports whether expenses in the category are considered
// non-discretionary (housing, utilities, taxes, debt).
func IsFixedCategory(c string) bool {
	return fixedCategories[c]
}
