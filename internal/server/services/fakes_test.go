package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/labels"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// -------- in-memory repositories --------

// memDB backs every fake repository. The DBTX handed to the manager is
// ignored; transactions are observed through sqlmock instead.
type memDB struct {
	mu sync.Mutex

	users    map[int64]*models.User
	tokens   map[string]*models.RefreshToken
	labels   map[models.LabelKind]map[int64]*models.Label
	links    map[models.LabelKind]map[int64][]int64
	recipes  map[int64]*models.Recipe
	nextID   int64
	failures map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[int64]*models.User{},
		tokens:   map[string]*models.RefreshToken{},
		labels:   map[models.LabelKind]map[int64]*models.Label{models.KindTag: {}, models.KindIngredient: {}},
		links:    map[models.LabelKind]map[int64][]int64{models.KindTag: {}, models.KindIngredient: {}},
		recipes:  map[int64]*models.Recipe{},
		failures: map[string]error{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) fail(op string) error {
	return m.failures[op]
}

type fakeRepoManager struct {
	mem *memDB
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository            { return &fakeUsers{f.mem} }
func (f *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return &fakeTokens{f.mem}
}
func (f *fakeRepoManager) Labels(_ dbx.DBTX, kind models.LabelKind) labels.Repository {
	return &fakeLabels{mem: f.mem, kind: kind}
}
func (f *fakeRepoManager) Recipes(dbx.DBTX) recipes.Repository { return &fakeRecipes{f.mem} }

type fakeUsers struct{ mem *memDB }

func (r *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("users.Create"); err != nil {
		return nil, err
	}
	for _, x := range m.users {
		if x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = m.id()
	c.CreatedAt = time.Now()
	m.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, x := range m.users {
		if x.Email == email {
			c := *x
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *x
	return &c, nil
}

func (r *fakeUsers) Update(ctx context.Context, u *models.User) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return common.ErrorNotFound
	}
	for _, x := range m.users {
		if x.ID != u.ID && x.Email == u.Email {
			return common.ErrorAlreadyExists
		}
	}
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (r *fakeUsers) Delete(ctx context.Context, id int64) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.users, id)
	for k, t := range m.tokens {
		if t.UserID == id {
			delete(m.tokens, k)
		}
	}
	for rid, rc := range m.recipes {
		if rc.UserID == id {
			m.dropRecipe(rid)
		}
	}
	for _, byID := range m.labels {
		for lid, l := range byID {
			if l.UserID == id {
				delete(byID, lid)
			}
		}
	}
	return nil
}

type fakeTokens struct{ mem *memDB }

func (r *fakeTokens) Create(ctx context.Context, userID int64, token string, validity time.Duration) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("tokens.Create"); err != nil {
		return err
	}
	m.tokens[token] = &models.RefreshToken{ID: m.id(), UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (r *fakeTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("tokens.Find"); err != nil {
		return nil, err
	}
	t, ok := m.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTokens) Delete(ctx context.Context, token string) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("tokens.Delete"); err != nil {
		return err
	}
	delete(m.tokens, token)
	return nil
}

func (r *fakeTokens) DeleteByUser(ctx context.Context, userID int64) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, k)
		}
	}
	return nil
}

type fakeLabels struct {
	mem  *memDB
	kind models.LabelKind
}

func (r *fakeLabels) List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Label, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Label
	for _, l := range m.labels[r.kind] {
		if l.UserID != userID {
			continue
		}
		if assignedOnly && !m.assigned(r.kind, userID, l.ID) {
			continue
		}
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name > out[j].Name
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memDB) assigned(kind models.LabelKind, userID, labelID int64) bool {
	for rid, ids := range m.links[kind] {
		if rc, ok := m.recipes[rid]; ok && rc.UserID == userID && slices.Contains(ids, labelID) {
			return true
		}
	}
	return false
}

func (r *fakeLabels) Get(ctx context.Context, userID, id int64) (*models.Label, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.labels[r.kind][id]
	if !ok || l.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *l
	return &c, nil
}

func (r *fakeLabels) GetOrCreate(ctx context.Context, userID int64, name string) (*models.Label, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(string(r.kind) + ".GetOrCreate"); err != nil {
		return nil, err
	}
	for _, l := range m.labels[r.kind] {
		if l.UserID == userID && l.Name == name {
			c := *l
			return &c, nil
		}
	}
	l := &models.Label{ID: m.id(), UserID: userID, Name: name}
	m.labels[r.kind][l.ID] = l
	c := *l
	return &c, nil
}

func (r *fakeLabels) Rename(ctx context.Context, userID, id int64, name string) (*models.Label, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.labels[r.kind][id]
	if !ok || l.UserID != userID {
		return nil, common.ErrorNotFound
	}
	for _, x := range m.labels[r.kind] {
		if x.ID != id && x.UserID == userID && x.Name == name {
			return nil, common.ErrorAlreadyExists
		}
	}
	l.Name = name
	c := *l
	return &c, nil
}

func (r *fakeLabels) Delete(ctx context.Context, userID, id int64) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.labels[r.kind][id]
	if !ok || l.UserID != userID {
		return common.ErrorNotFound
	}
	delete(m.labels[r.kind], id)
	for rid, ids := range m.links[r.kind] {
		m.links[r.kind][rid] = slices.DeleteFunc(ids, func(x int64) bool { return x == id })
	}
	return nil
}

func (r *fakeLabels) ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]*models.Label, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64][]*models.Label{}
	for _, rid := range recipeIDs {
		ids := slices.Clone(m.links[r.kind][rid])
		slices.Sort(ids)
		for _, id := range ids {
			c := *m.labels[r.kind][id]
			out[rid] = append(out[rid], &c)
		}
	}
	return out, nil
}

func (r *fakeLabels) SetForRecipe(ctx context.Context, recipeID int64, labelIDs []int64) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(string(r.kind) + ".SetForRecipe"); err != nil {
		return err
	}
	ids := slices.Clone(labelIDs)
	slices.Sort(ids)
	m.links[r.kind][recipeID] = slices.Compact(ids)
	return nil
}

type fakeRecipes struct{ mem *memDB }

func (r *fakeRecipes) List(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("recipes.List"); err != nil {
		return nil, err
	}
	var out []*models.Recipe
	for _, rc := range m.recipes {
		if rc.UserID != userID {
			continue
		}
		if !m.matches(models.KindTag, rc.ID, filter.TagIDs) || !m.matches(models.KindIngredient, rc.ID, filter.IngredientIDs) {
			continue
		}
		c := *rc
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memDB) matches(kind models.LabelKind, recipeID int64, want []int64) bool {
	if len(want) == 0 {
		return true
	}
	for _, id := range m.links[kind][recipeID] {
		if slices.Contains(want, id) {
			return true
		}
	}
	return false
}

func (r *fakeRecipes) Get(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.recipes[id]
	if !ok || rc.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *rc
	c.Tags, c.Ingredients = nil, nil
	return &c, nil
}

func (r *fakeRecipes) Create(ctx context.Context, rc *models.Recipe) (*models.Recipe, error) {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("recipes.Create"); err != nil {
		return nil, err
	}
	rc.ID = m.id()
	rc.CreatedAt = time.Now()
	c := *rc
	m.recipes[rc.ID] = &c
	return rc, nil
}

func (r *fakeRecipes) Update(ctx context.Context, rc *models.Recipe) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.recipes[rc.ID]
	if !ok || cur.UserID != rc.UserID {
		return common.ErrorNotFound
	}
	c := *rc
	c.Image = cur.Image
	m.recipes[rc.ID] = &c
	return nil
}

func (r *fakeRecipes) SetImage(ctx context.Context, userID, id int64, image string) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("recipes.SetImage"); err != nil {
		return err
	}
	rc, ok := m.recipes[id]
	if !ok || rc.UserID != userID {
		return common.ErrorNotFound
	}
	rc.Image = image
	return nil
}

func (r *fakeRecipes) Delete(ctx context.Context, userID, id int64) error {
	m := r.mem
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.recipes[id]
	if !ok || rc.UserID != userID {
		return common.ErrorNotFound
	}
	m.dropRecipe(id)
	return nil
}

func (m *memDB) dropRecipe(id int64) {
	delete(m.recipes, id)
	delete(m.links[models.KindTag], id)
	delete(m.links[models.KindIngredient], id)
}

// -------- image store --------

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	delErr  error
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) URL(ctx context.Context, key string) (string, error) {
	return "/media/" + key, nil
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// -------- helpers --------

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// expectTx registers n committed transactions.
func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func ptr[T any](v T) *T { return &v }

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

func nopLogger() logging.Logger { return logging.Nop() }
