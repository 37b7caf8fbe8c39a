package models

// Category is the closed set of expense categories.
type Category string

const (
	CategoryFood           Category = "food"
	CategoryGroceries      Category = "groceries"
	CategoryHousing        Category = "housing"
	CategoryTransportation Category = "transportation"
	CategoryUtilities      Category = "utilities"
	CategoryEntertainment  Category = "entertainment"
	CategoryHealthcare     Category = "healthcare"
	CategoryEducation      Category = "education"
	CategoryShopping       Category = "shopping"
	CategoryPersonal       Category = "personal"
	CategoryDebt           Category = "debt"
	CategorySavings        Category = "savings"
	CategoryGifts          Category = "gifts"
	CategoryOther          Category = "other"
)

var allCategories = []Category{
	CategoryFood,
	CategoryGroceries,
	CategoryHousing,
	CategoryTransportation,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryHealthcare,
	CategoryEducation,
	CategoryShopping,
	CategoryPersonal,
	CategoryDebt,
	CategorySavings,
	CategoryGifts,
	CategoryOther,
}

// AllCategories returns every category in display order.
func AllCategories() []Category {
	return append([]Category(nil), allCategories...)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}
