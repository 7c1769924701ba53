// Package labels stores the per-user name registries used to classify
// recipes: tags and ingredients. Both kinds share one table layout, so a
// single implementation parametrised by models.LabelKind serves them.
package labels

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// Repository is scoped by owner on every call: rows of other users behave
// exactly like missing rows.
type Repository interface {
	// List returns the owner's labels ordered by name descending. With
	// assignedOnly set, only labels used by at least one of the owner's
	// recipes are returned, each once.
	List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Label, error)
	Get(ctx context.Context, userID, id int64) (*models.Label, error)
	// GetOrCreate returns the owner's label with this exact name, creating it
	// if needed. Safe under concurrent calls with the same name.
	GetOrCreate(ctx context.Context, userID int64, name string) (*models.Label, error)
	// Rename yields common.ErrorAlreadyExists if the owner already has a label
	// with the new name.
	Rename(ctx context.Context, userID, id int64, name string) (*models.Label, error)
	Delete(ctx context.Context, userID, id int64) error

	// ListByRecipes returns the labels attached to each of recipeIDs.
	ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]*models.Label, error)
	// SetForRecipe replaces the recipe's association set with labelIDs.
	SetForRecipe(ctx context.Context, recipeID int64, labelIDs []int64) error
}
