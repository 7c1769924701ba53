package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (h *Handler) createUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	u, err := h.users.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUser(u))
}

func (h *Handler) createToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	pair, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			err = common.NewValidationError(common.NonFieldErrors, "Unable to authenticate with provided credentials.")
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toToken(pair))
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	pair, err := h.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toToken(pair))
}

func (h *Handler) getMe(c *gin.Context) {
	u, _ := UserFromContext(c)
	c.JSON(http.StatusOK, toUser(u))
}

func (h *Handler) updateMe(full bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, _ := UserFromContext(c)

		var req userUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, bindError(err))
			return
		}

		if full {
			verr := &common.ValidationError{}
			for field, v := range map[string]*string{"email": req.Email, "password": req.Password, "name": req.Name} {
				if v == nil {
					verr.Add(field, "This field is required.")
				}
			}
			if err := verr.OrNil(); err != nil {
				h.fail(c, err)
				return
			}
		}

		u, err := h.users.UpdateSelf(c.Request.Context(), me.ID, services.UserUpdate{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
		})
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, toUser(u))
	}
}

func (h *Handler) deleteMe(c *gin.Context) {
	me, _ := UserFromContext(c)
	if err := h.users.DeleteSelf(c.Request.Context(), me.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
