package models

import "time"

type Recipe struct {
	ID          int64
	UserID      int64
	Title       string
	TimeMinutes int
	Price       Price
	Description string
	Link        string
	// Image is the storage key of the uploaded image, empty when none.
	Image       string
	Tags        []*Label
	Ingredients []*Label
	CreatedAt   time.Time
}

// RecipeFilter narrows a recipe listing. A recipe matches when, for every
// non-empty dimension, it references at least one of the given ids.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

func (f RecipeFilter) Empty() bool {
	return len(f.TagIDs) == 0 && len(f.IngredientIDs) == 0
}
