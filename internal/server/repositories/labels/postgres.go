package labels

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

type PostgresRepository struct {
	db   dbx.DBTX
	kind models.LabelKind
}

func NewPostgresRepository(db dbx.DBTX, kind models.LabelKind) *PostgresRepository {
	return &PostgresRepository{db: db, kind: kind}
}

func (r *PostgresRepository) List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Label, error) {
	query := fmt.Sprintf(
		`SELECT l.id, l.user_id, l.name
		 FROM %s l
		 WHERE l.user_id = $1`, r.kind.Table())

	if assignedOnly {
		query += fmt.Sprintf(`
		 AND EXISTS (
		     SELECT 1 FROM %s j
		     JOIN recipes rc ON rc.id = j.recipe_id
		     WHERE j.%s = l.id AND rc.user_id = $1
		 )`, r.kind.JoinTable(), r.kind.JoinColumn())
	}

	query += `
		 ORDER BY l.name DESC, l.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Label, 0)
	for rows.Next() {
		l := &models.Label{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id int64) (*models.Label, error) {
	query := fmt.Sprintf(
		`SELECT id, user_id, name FROM %s
		 WHERE id = $1 AND user_id = $2`, r.kind.Table())

	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID int64, name string) (*models.Label, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	query := fmt.Sprintf(
		`INSERT INTO %s (user_id, name)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, user_id, name`, r.kind.Table())

	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, name))
}

func (r *PostgresRepository) Rename(ctx context.Context, userID, id int64, name string) (*models.Label, error) {
	query := fmt.Sprintf(
		`UPDATE %s SET name = $1
		 WHERE id = $2 AND user_id = $3
		 RETURNING id, user_id, name`, r.kind.Table())

	l, err := r.scanOne(r.db.QueryRowContext(ctx, query, name, id, userID))
	if err != nil && dbx.IsUniqueViolation(err) {
		return nil, common.ErrorAlreadyExists
	}
	return l, err
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.kind.Table())

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]*models.Label, error) {
	result := make(map[int64][]*models.Label, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(
		`SELECT j.recipe_id, l.id, l.user_id, l.name
		 FROM %s j
		 JOIN %s l ON l.id = j.%s
		 WHERE j.recipe_id IN (%s)
		 ORDER BY j.recipe_id, l.id`,
		r.kind.JoinTable(), r.kind.Table(), r.kind.JoinColumn(), dbx.Placeholders(1, len(recipeIDs)))

	rows, err := r.db.QueryContext(ctx, query, int64Args(recipeIDs)...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		l := &models.Label{}
		if err := rows.Scan(&recipeID, &l.ID, &l.UserID, &l.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result[recipeID] = append(result[recipeID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) SetForRecipe(ctx context.Context, recipeID int64, labelIDs []int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, r.kind.JoinTable())
	if _, err := r.db.ExecContext(ctx, query, recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if len(labelIDs) == 0 {
		return nil
	}

	values := make([]string, len(labelIDs))
	args := make([]any, 0, len(labelIDs)+1)
	args = append(args, recipeID)
	for i, id := range labelIDs {
		values[i] = fmt.Sprintf("($1, $%d)", i+2)
		args = append(args, id)
	}

	query = fmt.Sprintf(
		`INSERT INTO %s (recipe_id, %s)
		 VALUES %s
		 ON CONFLICT DO NOTHING`,
		r.kind.JoinTable(), r.kind.JoinColumn(), strings.Join(values, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Label, error) {
	l := &models.Label{}
	if err := row.Scan(&l.ID, &l.UserID, &l.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
