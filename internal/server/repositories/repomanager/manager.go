package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/labels"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same constructors with *sql.DB or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Labels(db dbx.DBTX, kind models.LabelKind) labels.Repository
	Recipes(db dbx.DBTX) recipes.Repository
}
