package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

const recipeColumns = `r.id, r.user_id, r.title, r.time_minutes, r.price, r.description, r.link, r.image, r.created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + `
		 FROM recipes r
		 WHERE r.user_id = $1`
	args := []any{userID}

	// One EXISTS per dimension keeps each recipe at most once in the result.
	dims := []struct {
		kind models.LabelKind
		ids  []int64
	}{
		{models.KindTag, filter.TagIDs},
		{models.KindIngredient, filter.IngredientIDs},
	}
	for _, d := range dims {
		if len(d.ids) == 0 {
			continue
		}
		query += fmt.Sprintf(`
		 AND EXISTS (
		     SELECT 1 FROM %s j
		     WHERE j.recipe_id = r.id AND j.%s IN (%s)
		 )`, d.kind.JoinTable(), d.kind.JoinColumn(), dbx.Placeholders(len(args)+1, len(d.ids)))
		for _, id := range d.ids {
			args = append(args, id)
		}
	}

	query += `
		 ORDER BY r.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Recipe, 0)
	for rows.Next() {
		rc, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + `
		 FROM recipes r
		 WHERE r.id = $1 AND r.user_id = $2`

	rc, err := scanRecipe(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rc, nil
}

func (r *PostgresRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	query :=
		`INSERT INTO recipes (user_id, title, time_minutes, price, description, link, image)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		recipe.UserID, recipe.Title, recipe.TimeMinutes, recipe.Price,
		recipe.Description, recipe.Link, recipe.Image,
	).Scan(&recipe.ID, &recipe.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recipe, nil
}

func (r *PostgresRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	query :=
		`UPDATE recipes
		 SET title = $1, time_minutes = $2, price = $3, description = $4, link = $5
		 WHERE id = $6 AND user_id = $7`

	res, err := r.db.ExecContext(ctx, query,
		recipe.Title, recipe.TimeMinutes, recipe.Price, recipe.Description, recipe.Link,
		recipe.ID, recipe.UserID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) SetImage(ctx context.Context, userID, id int64, image string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET image = $1 WHERE id = $2 AND user_id = $3`, image, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (*models.Recipe, error) {
	rc := &models.Recipe{}
	err := s.Scan(&rc.ID, &rc.UserID, &rc.Title, &rc.TimeMinutes, &rc.Price,
		&rc.Description, &rc.Link, &rc.Image, &rc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
