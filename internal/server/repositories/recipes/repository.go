// Package recipes persists recipe rows. Association sets are stored by the
// labels repository; this package only filters on them.
package recipes

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// Repository is scoped by owner: another user's recipe is reported as
// common.ErrorNotFound.
type Repository interface {
	// List returns the owner's recipes, newest first, narrowed by filter.
	List(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error)
	Get(ctx context.Context, userID, id int64) (*models.Recipe, error)
	// Create inserts recipe and fills its ID and CreatedAt.
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	// Update overwrites the scalar fields of recipe, matched by ID and UserID.
	Update(ctx context.Context, recipe *models.Recipe) error
	SetImage(ctx context.Context, userID, id int64, image string) error
	Delete(ctx context.Context, userID, id int64) error
}
