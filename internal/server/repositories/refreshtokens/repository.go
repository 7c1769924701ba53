// Package refreshtokens declares the server-side repository contract for
// refresh tokens kept in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// Repository defines operations for issuing, retrieving and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID int64, token string, validity time.Duration) error

	// Find looks up a refresh token by its opaque token string.
	// A missing token yields common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every refresh token of userID.
	DeleteByUser(ctx context.Context, userID int64) error
}
