package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/recipebook/internal/client/models"
)

// Client is the API surface the CLI depends on.
type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) error
	Logout()
	Me(ctx context.Context) (*models.User, error)
	ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, in models.RecipeInput) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error
	UploadImage(ctx context.Context, id int64, filename string, r io.Reader) (*models.ImageUpload, error)
	ListLabels(ctx context.Context, kind LabelKind, assignedOnly bool) ([]models.Label, error)
}
