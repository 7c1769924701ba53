// Package rest exposes the recipe book over HTTP/JSON using gin. Every
// route below /api except registration and token issue requires an
// authenticated user.
package rest

import (
	"context"
	"io"

	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	UpdateSelf(ctx context.Context, userID int64, upd services.UserUpdate) (*models.User, error)
	DeleteSelf(ctx context.Context, userID int64) error
}

type LabelService interface {
	List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Label, error)
	Create(ctx context.Context, userID int64, name string) (*models.Label, error)
	Get(ctx context.Context, userID, id int64) (*models.Label, error)
	Update(ctx context.Context, userID, id int64, name string) (*models.Label, error)
	Delete(ctx context.Context, userID, id int64) error
}

type RecipeService interface {
	List(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error)
	Get(ctx context.Context, userID, id int64) (*models.Recipe, error)
	Create(ctx context.Context, userID int64, in services.RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, userID, id int64, in services.RecipeInput, full bool) (*models.Recipe, error)
	Delete(ctx context.Context, userID, id int64) error
	UploadImage(ctx context.Context, userID, id int64, body io.Reader) (*models.Recipe, error)
	ImageURL(ctx context.Context, key string) (string, error)
}

// ReadyFunc reports whether the server can take traffic.
type ReadyFunc func(ctx context.Context) error

// Handler holds the services behind the HTTP routes.
type Handler struct {
	users       UserService
	tags        LabelService
	ingredients LabelService
	recipes     RecipeService
	ready       ReadyFunc
	logger      logging.Logger
}

func NewHandler(users UserService, tags, ingredients LabelService, recipes RecipeService, ready ReadyFunc, logger logging.Logger) *Handler {
	if ready == nil {
		ready = func(context.Context) error { return nil }
	}
	return &Handler{
		users:       users,
		tags:        tags,
		ingredients: ingredients,
		recipes:     recipes,
		ready:       ready,
		logger:      logger.With("module", "rest"),
	}
}
