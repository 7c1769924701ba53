package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testToken = "good-token"

var testUser = &models.User{ID: 7, Email: "test@example.com", Name: "Test User"}

// -------- fake services --------

type fakeUsers struct {
	registered  []string
	registerErr error
	loginErr    error
	refreshErr  error
	update      *services.UserUpdate
	updateErr   error
	deleted     bool
	authErr     error
}

func (f *fakeUsers) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, email)
	return &models.User{ID: 1, Email: email, Name: name, PasswordHash: "hash"}, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &services.TokenPair{AccessToken: "access2", RefreshToken: "refresh2"}, nil
}

func (f *fakeUsers) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	if accessToken != testToken {
		return nil, common.ErrInvalidToken
	}
	return testUser, nil
}

func (f *fakeUsers) UpdateSelf(ctx context.Context, userID int64, upd services.UserUpdate) (*models.User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.update = &upd
	u := *testUser
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	return &u, nil
}

func (f *fakeUsers) DeleteSelf(ctx context.Context, userID int64) error {
	f.deleted = true
	return nil
}

type fakeLabels struct {
	items        []*models.Label
	assignedOnly bool
	err          error
}

func (f *fakeLabels) List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Label, error) {
	f.assignedOnly = assignedOnly
	return f.items, f.err
}

func (f *fakeLabels) Create(ctx context.Context, userID int64, name string) (*models.Label, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Label{ID: 11, UserID: userID, Name: name}, nil
}

func (f *fakeLabels) find(userID, id int64) (*models.Label, error) {
	for _, l := range f.items {
		if l.ID == id && l.UserID == userID {
			return l, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeLabels) Get(ctx context.Context, userID, id int64) (*models.Label, error) {
	return f.find(userID, id)
}

func (f *fakeLabels) Update(ctx context.Context, userID, id int64, name string) (*models.Label, error) {
	if f.err != nil {
		return nil, f.err
	}
	l, err := f.find(userID, id)
	if err != nil {
		return nil, err
	}
	return &models.Label{ID: l.ID, UserID: userID, Name: name}, nil
}

func (f *fakeLabels) Delete(ctx context.Context, userID, id int64) error {
	_, err := f.find(userID, id)
	return err
}

type fakeRecipes struct {
	items   map[int64]*models.Recipe
	filter  models.RecipeFilter
	input   services.RecipeInput
	full    bool
	err     error
	upload  []byte
	deleted []int64
}

func (f *fakeRecipes) List(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error) {
	f.filter = filter
	var out []*models.Recipe
	for _, r := range f.items {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeRecipes) Get(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	r, ok := f.items[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakeRecipes) Create(ctx context.Context, userID int64, in services.RecipeInput) (*models.Recipe, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	r := &models.Recipe{ID: 100, UserID: userID, Title: *in.Title, TimeMinutes: *in.TimeMinutes, Price: *in.Price}
	if in.Tags != nil {
		for i, n := range *in.Tags {
			r.Tags = append(r.Tags, &models.Label{ID: int64(i + 1), Name: n})
		}
	}
	return r, nil
}

func (f *fakeRecipes) Update(ctx context.Context, userID, id int64, in services.RecipeInput, full bool) (*models.Recipe, error) {
	f.input, f.full = in, full
	if f.err != nil {
		return nil, f.err
	}
	r, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	c := *r
	if in.Title != nil {
		c.Title = *in.Title
	}
	return &c, nil
}

func (f *fakeRecipes) Delete(ctx context.Context, userID, id int64) error {
	if _, err := f.Get(ctx, userID, id); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRecipes) UploadImage(ctx context.Context, userID, id int64, body io.Reader) (*models.Recipe, error) {
	r, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	f.upload, _ = io.ReadAll(body)
	if f.err != nil {
		return nil, f.err
	}
	c := *r
	c.Image = "recipes/new.png"
	return &c, nil
}

func (f *fakeRecipes) ImageURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return "/media/" + key, nil
}

// -------- helpers --------

type testEnv struct {
	users       *fakeUsers
	tags        *fakeLabels
	ingredients *fakeLabels
	recipes     *fakeRecipes
	ready       error
	router      *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:       &fakeUsers{},
		tags:        &fakeLabels{},
		ingredients: &fakeLabels{},
		recipes:     &fakeRecipes{items: map[int64]*models.Recipe{}},
	}
	h := NewHandler(env.users, env.tags, env.ingredients, env.recipes,
		func(context.Context) error { return env.ready }, logging.Nop())
	env.router = NewRouter(h, RouterConfig{AllowedOrigins: []string{"http://localhost:3000"}})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			rd = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	return decode[ErrorResponse](t, w)
}
