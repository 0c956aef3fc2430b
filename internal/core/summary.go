package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// Budget is a per-category monthly spending ceiling.
type Budget struct {
	Category Category
	Limit    Money
}
