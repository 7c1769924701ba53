package recipes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var columns = []string{"id", "user_id", "title", "time_minutes", "price", "description", "link", "image", "created_at"}

const selectPrefix = `(?s)^SELECT\s+r\.id,\s*r\.user_id,\s*r\.title,\s*r\.time_minutes,\s*r\.price,\s*r\.description,\s*r\.link,\s*r\.image,\s*r\.created_at\s+FROM\s+recipes\s+r\s+`

func TestList_NoFilter(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(selectPrefix + `WHERE\s+r\.user_id\s*=\s*\$1\s+ORDER\s+BY\s+r\.id\s+DESC$`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(2), int64(1), "Pie", 30, "10.40", "", "", "", now).
			AddRow(int64(1), int64(1), "Soup", 20, "5.00", "hot", "http://x", "recipes/a.png", now))

	got, err := repo.List(context.Background(), 1, models.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, "10.40", got[0].Price.String())
	assert.Equal(t, "recipes/a.png", got[1].Image)
}

func TestList_FilterByTags(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := selectPrefix + `WHERE\s+r\.user_id\s*=\s*\$1\s+AND\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+recipe_tags\s+j\s+WHERE\s+j\.recipe_id\s*=\s*r\.id\s+AND\s+j\.tag_id\s+IN\s*\(\$2,\s*\$3\)\s*\)\s+ORDER\s+BY\s+r\.id\s+DESC$`
	mock.ExpectQuery(q).
		WithArgs(int64(1), int64(4), int64(5)).
		WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.List(context.Background(), 1, models.RecipeFilter{TagIDs: []int64{4, 5}})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_FilterByTagsAndIngredients(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := selectPrefix + `WHERE\s+r\.user_id\s*=\s*\$1` +
		`\s+AND\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+recipe_tags\s+j\s+WHERE\s+j\.recipe_id\s*=\s*r\.id\s+AND\s+j\.tag_id\s+IN\s*\(\$2\)\s*\)` +
		`\s+AND\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+recipe_ingredients\s+j\s+WHERE\s+j\.recipe_id\s*=\s*r\.id\s+AND\s+j\.ingredient_id\s+IN\s*\(\$3,\s*\$4\)\s*\)` +
		`\s+ORDER\s+BY\s+r\.id\s+DESC$`
	mock.ExpectQuery(q).
		WithArgs(int64(1), int64(4), int64(7), int64(8)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(3), int64(1), "Curry", 45, "12.00", "", "", "", time.Now()))

	got, err := repo.List(context.Background(), 1, models.RecipeFilter{TagIDs: []int64{4}, IngredientIDs: []int64{7, 8}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Curry", got[0].Title)
}

func TestList_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+recipes`).WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background(), 1, models.RecipeFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestGet(t *testing.T) {
	q := selectPrefix + `WHERE\s+r\.id\s*=\s*\$1\s+AND\s+r\.user_id\s*=\s*\$2$`

	t.Run("owned", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(int64(3), int64(1)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(3), int64(1), "Curry", 45, "12.00", "spicy", "", "", time.Now()))

		got, err := repo.Get(context.Background(), 1, 3)
		require.NoError(t, err)
		assert.Equal(t, "spicy", got.Description)
		assert.Equal(t, 45, got.TimeMinutes)
	})

	t.Run("other user", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(int64(3), int64(2)).WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), 2, 3)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	q := `(?s)^INSERT\s+INTO\s+recipes\s*\(user_id,\s*title,\s*time_minutes,\s*price,\s*description,\s*link,\s*image\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*RETURNING\s+id,\s*created_at$`
	mock.ExpectQuery(q).
		WithArgs(int64(1), "Pie", 30, "10.40", "", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))

	got, err := repo.Create(context.Background(), &models.Recipe{
		UserID: 1, Title: "Pie", TimeMinutes: 30, Price: models.MustPrice("10.4"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestUpdate(t *testing.T) {
	q := `(?s)^UPDATE\s+recipes\s+SET\s+title\s*=\s*\$1,\s*time_minutes\s*=\s*\$2,\s*price\s*=\s*\$3,\s*description\s*=\s*\$4,\s*link\s*=\s*\$5\s+WHERE\s+id\s*=\s*\$6\s+AND\s+user_id\s*=\s*\$7$`
	rc := &models.Recipe{ID: 3, UserID: 1, Title: "New", TimeMinutes: 5, Price: models.MustPrice("1.5"), Description: "d", Link: "l"}

	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("New", 5, "1.50", "d", "l", int64(3), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.Update(context.Background(), rc))
	})

	t.Run("not owned", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Update(context.Background(), rc), common.ErrorNotFound)
	})
}

func TestSetImage(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE recipes SET image = \$1 WHERE id = \$2 AND user_id = \$3$`).
		WithArgs("recipes/x.png", int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetImage(context.Background(), 1, 3, "recipes/x.png"))
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `^DELETE FROM recipes WHERE id = \$1 AND user_id = \$2$`
	mock.ExpectExec(q).WithArgs(int64(3), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(3), int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs(int64(4), int64(1)).WillReturnError(errors.New("db err"))

	require.NoError(t, repo.Delete(context.Background(), 1, 3))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2, 3), common.ErrorNotFound)

	err := repo.Delete(context.Background(), 1, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}
