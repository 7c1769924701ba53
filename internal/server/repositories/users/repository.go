// Package users declares the account repository contract and its
// PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A duplicate email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// Update overwrites email, name and password hash of an existing user.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}
