package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/client/models"
)

// LabelKind selects the label collection: tags or ingredients.
type LabelKind string

const (
	Tags        LabelKind = "tags"
	Ingredients LabelKind = "ingredients"
)

type HTTPClient struct {
	baseURL      string
	http         *http.Client
	accessToken  string
	refreshToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// request is a replayable API call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	auth        bool
}

func jsonRequest(method, path string, payload any, auth bool) (request, error) {
	r := request{method: method, path: path, auth: auth}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return r, err
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

func (c *HTTPClient) send(ctx context.Context, r request) (*http.Response, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if r.auth && c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// do sends r and decodes a 2xx body into out. An expired access token is
// refreshed once and the call replayed.
func (c *HTTPClient) do(ctx context.Context, r request, out any) error {
	err := c.doOnce(ctx, r, out)

	var apiErr *Error
	if !r.auth || !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != tokenExpiredMessage || c.refreshToken == "" {
		return err
	}

	if err := c.refresh(ctx); err != nil {
		return err
	}
	return c.doOnce(ctx, r, out)
}

func (c *HTTPClient) doOnce(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode}
	// Non-JSON bodies (proxies, gin's plain 404) leave the envelope empty.
	_ = json.NewDecoder(resp.Body).Decode(&e.APIError)
	return e
}

func (c *HTTPClient) refresh(ctx context.Context) error {
	r, err := jsonRequest(http.MethodPost, "/api/users/token/refresh/", map[string]string{"refresh_token": c.refreshToken}, false)
	if err != nil {
		return err
	}

	var t models.Tokens
	if err := c.doOnce(ctx, r, &t); err != nil {
		c.Logout()
		return err
	}
	c.accessToken, c.refreshToken = t.Token, t.RefreshToken
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doOnce(ctx, request{method: http.MethodGet, path: "/healthz"}, nil)
}

func (c *HTTPClient) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	r, err := jsonRequest(http.MethodPost, "/api/users/", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, false)
	if err != nil {
		return nil, err
	}

	var u models.User
	if err := c.do(ctx, r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login exchanges credentials for a token pair kept on the client.
func (c *HTTPClient) Login(ctx context.Context, email, password string) error {
	r, err := jsonRequest(http.MethodPost, "/api/users/token/", map[string]string{
		"email":    email,
		"password": password,
	}, false)
	if err != nil {
		return err
	}

	var t models.Tokens
	if err := c.do(ctx, r, &t); err != nil {
		return err
	}
	c.accessToken, c.refreshToken = t.Token, t.RefreshToken
	return nil
}

// Logout forgets the token pair.
func (c *HTTPClient) Logout() {
	c.accessToken, c.refreshToken = "", ""
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/users/me/", auth: true}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error) {
	q := url.Values{}
	if len(filter.Tags) > 0 {
		q.Set("tags", joinIDs(filter.Tags))
	}
	if len(filter.Ingredients) > 0 {
		q.Set("ingredients", joinIDs(filter.Ingredients))
	}

	var list []models.Recipe
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/recipes/", query: q, auth: true}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	var rec models.Recipe
	if err := c.do(ctx, request{method: http.MethodGet, path: recipePath(id), auth: true}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) CreateRecipe(ctx context.Context, in models.RecipeInput) (*models.Recipe, error) {
	if in.Tags == nil {
		in.Tags = []models.LabelRef{}
	}
	if in.Ingredients == nil {
		in.Ingredients = []models.LabelRef{}
	}

	r, err := jsonRequest(http.MethodPost, "/api/recipes/", in, true)
	if err != nil {
		return nil, err
	}

	var rec models.Recipe
	if err := c.do(ctx, r, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) DeleteRecipe(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: recipePath(id), auth: true}, nil)
}

// UploadImage sends the content of r as the "image" form file.
func (c *HTTPClient) UploadImage(ctx context.Context, id int64, filename string, r io.Reader) (*models.ImageUpload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req := request{
		method:      http.MethodPost,
		path:        recipePath(id) + "upload-image/",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		auth:        true,
	}

	var out models.ImageUpload
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListLabels(ctx context.Context, kind LabelKind, assignedOnly bool) ([]models.Label, error) {
	q := url.Values{}
	if assignedOnly {
		q.Set("assigned_only", "1")
	}

	var list []models.Label
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/" + string(kind) + "/", query: q, auth: true}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func recipePath(id int64) string {
	return "/api/recipes/" + strconv.FormatInt(id, 10) + "/"
}

func joinIDs(ids []int64) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(s, ",")
}
