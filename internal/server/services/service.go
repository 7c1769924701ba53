// Package services contains the server-side business logic: accounts and
// tokens, the tag and ingredient registries, and the recipe catalog.
// Services validate input, open transactions and delegate storage to the
// repositories vended by a repomanager.RepositoryManager.
package services

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// scoped normalises the "no such row for this owner" outcomes of the
// repositories into common.ErrorNotFound.
func scoped(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
