// Package models holds the API payloads the CLI sends and receives.
package models

// User is the account returned by /api/users/me/.
type User struct {
	ID    int64  `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
	Name  string `json:"name" yaml:"name"`
}

type Tokens struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// Label is a tag or an ingredient.
type Label struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Recipe is the detail representation. List responses leave Description
// and Image empty.
type Recipe struct {
	ID          int64   `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	TimeMinutes int     `json:"time_minutes" yaml:"time_minutes"`
	Price       string  `json:"price" yaml:"price"`
	Link        string  `json:"link" yaml:"link,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Image       *string `json:"image,omitempty" yaml:"image,omitempty"`
	Tags        []Label `json:"tags" yaml:"tags"`
	Ingredients []Label `json:"ingredients" yaml:"ingredients"`
}

// LabelRef names a tag or ingredient inside a recipe payload.
type LabelRef struct {
	Name string `json:"name"`
}

// RecipeInput is the body of a recipe create request.
type RecipeInput struct {
	Title       string     `json:"title"`
	TimeMinutes int        `json:"time_minutes"`
	Price       string     `json:"price"`
	Description string     `json:"description,omitempty"`
	Link        string     `json:"link,omitempty"`
	Tags        []LabelRef `json:"tags"`
	Ingredients []LabelRef `json:"ingredients"`
}

// RecipeFilter narrows the recipe list to recipes sharing at least one tag
// and at least one ingredient with the given ids. Empty slices do not filter.
type RecipeFilter struct {
	Tags        []int64
	Ingredients []int64
}

// ImageUpload is the response of the image upload endpoint.
type ImageUpload struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// APIError mirrors the server's error envelope.
type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
	Retryable bool           `json:"retryable"`
}
