package rest

import (
	"net/http"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) listRecipes(c *gin.Context) {
	me, _ := UserFromContext(c)

	tagIDs, err := queryIDs(c, "tags")
	if err != nil {
		h.fail(c, err)
		return
	}
	ingredientIDs, err := queryIDs(c, "ingredients")
	if err != nil {
		h.fail(c, err)
		return
	}

	list, err := h.recipes.List(c.Request.Context(), me.ID, models.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]recipeResponse, len(list))
	for i, r := range list {
		out[i] = toRecipe(r)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) createRecipe(c *gin.Context) {
	me, _ := UserFromContext(c)

	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	r, err := h.recipes.Create(c.Request.Context(), me.ID, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeRecipe(c, http.StatusCreated, r)
}

func (h *Handler) getRecipe(c *gin.Context) {
	me, _ := UserFromContext(c)
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	r, err := h.recipes.Get(c.Request.Context(), me.ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeRecipe(c, http.StatusOK, r)
}

func (h *Handler) updateRecipe(full bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, _ := UserFromContext(c)
		id, err := pathID(c)
		if err != nil {
			h.fail(c, err)
			return
		}

		var req recipeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, bindError(err))
			return
		}

		r, err := h.recipes.Update(c.Request.Context(), me.ID, id, req.input(), full)
		if err != nil {
			h.fail(c, err)
			return
		}
		h.writeRecipe(c, http.StatusOK, r)
	}
}

func (h *Handler) deleteRecipe(c *gin.Context) {
	me, _ := UserFromContext(c)
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), me.ID, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadImage accepts a multipart form with the file in field "image".
func (h *Handler) uploadImage(c *gin.Context) {
	me, _ := UserFromContext(c)
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		h.fail(c, common.NewValidationError("image", "No file was submitted."))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	r, err := h.recipes.UploadImage(c.Request.Context(), me.ID, id, f)
	if err != nil {
		h.fail(c, err)
		return
	}

	url, err := h.recipes.ImageURL(c.Request.Context(), r.Image)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, imageResponse{ID: r.ID, Image: url})
}

func (h *Handler) writeRecipe(c *gin.Context, status int, r *models.Recipe) {
	out, err := h.toRecipeDetail(c.Request.Context(), r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, out)
}
