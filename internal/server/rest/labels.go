package rest

import (
	"net/http"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) listLabels(svc LabelService) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, _ := UserFromContext(c)

		assignedOnly, err := queryFlag(c, "assigned_only")
		if err != nil {
			h.fail(c, err)
			return
		}

		list, err := svc.List(c.Request.Context(), me.ID, assignedOnly)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, toLabels(list))
	}
}

func (h *Handler) createLabel(svc LabelService) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, _ := UserFromContext(c)

		var req labelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, bindError(err))
			return
		}

		l, err := svc.Create(c.Request.Context(), me.ID, req.Name)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, toLabel(l))
	}
}

func (h *Handler) getLabel(svc LabelService) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, _ := UserFromContext(c)
		id, err := pathID(c)
		if err != nil {
			h.fail(c, err)
			return
		}

		l, err := svc.Get(c.Request.Context(), me.ID, id)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, toLabel(l))
	}
}

// updateLabel serves PUT and PATCH. name is the only writable field, so a
// PATCH without it leaves the label unchanged.
func (h *Handler) updateLabel(svc LabelService, full bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, _ := UserFromContext(c)
		id, err := pathID(c)
		if err != nil {
			h.fail(c, err)
			return
		}

		var req labelPatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, bindError(err))
			return
		}

		var l *models.Label
		switch {
		case req.Name != nil:
			l, err = svc.Update(c.Request.Context(), me.ID, id, *req.Name)
		case full:
			err = common.NewValidationError("name", "This field is required.")
		default:
			l, err = svc.Get(c.Request.Context(), me.ID, id)
		}
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, toLabel(l))
	}
}

func (h *Handler) deleteLabel(svc LabelService) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, _ := UserFromContext(c)
		id, err := pathID(c)
		if err != nil {
			h.fail(c, err)
			return
		}

		if err := svc.Delete(c.Request.Context(), me.ID, id); err != nil {
			h.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
