package rest

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type tokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type userUpdateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type labelRequest struct {
	Name string `json:"name" binding:"required"`
}

type labelPatchRequest struct {
	Name *string `json:"name"`
}

type labelResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type recipeRequest struct {
	Title       *string       `json:"title"`
	TimeMinutes *int          `json:"time_minutes"`
	Price       *models.Price `json:"price"`
	Description *string       `json:"description"`
	Link        *string       `json:"link"`
	Tags        *[]labelRef   `json:"tags"`
	Ingredients *[]labelRef   `json:"ingredients"`
}

// labelRef names a tag or ingredient inside a recipe payload.
type labelRef struct {
	Name string `json:"name"`
}

type recipeResponse struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       models.Price    `json:"price"`
	Link        string          `json:"link"`
	Tags        []labelResponse `json:"tags"`
	Ingredients []labelResponse `json:"ingredients"`
}

type recipeDetailResponse struct {
	recipeResponse
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

type imageResponse struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

func toUser(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func toToken(p *services.TokenPair) tokenResponse {
	return tokenResponse{Token: p.AccessToken, RefreshToken: p.RefreshToken}
}

func toLabel(l *models.Label) labelResponse {
	return labelResponse{ID: l.ID, Name: l.Name}
}

func toLabels(list []*models.Label) []labelResponse {
	out := make([]labelResponse, len(list))
	for i, l := range list {
		out[i] = toLabel(l)
	}
	return out
}

func toRecipe(r *models.Recipe) recipeResponse {
	return recipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        toLabels(r.Tags),
		Ingredients: toLabels(r.Ingredients),
	}
}

func (h *Handler) toRecipeDetail(ctx context.Context, r *models.Recipe) (recipeDetailResponse, error) {
	out := recipeDetailResponse{recipeResponse: toRecipe(r), Description: r.Description}
	if r.Image != "" {
		url, err := h.recipes.ImageURL(ctx, r.Image)
		if err != nil {
			return out, err
		}
		out.Image = &url
	}
	return out, nil
}

func (req recipeRequest) input() services.RecipeInput {
	return services.RecipeInput{
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Description: req.Description,
		Link:        req.Link,
		Tags:        refNames(req.Tags),
		Ingredients: refNames(req.Ingredients),
	}
}

func refNames(refs *[]labelRef) *[]string {
	if refs == nil {
		return nil
	}
	names := make([]string, len(*refs))
	for i, r := range *refs {
		names[i] = r.Name
	}
	return &names
}
