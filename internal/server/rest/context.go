package rest

import (
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserKey      = "user"
	ctxRequestIDKey = "request_id"
)

// UserFromContext returns the principal resolved by the auth middleware.
func UserFromContext(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxRequestIDKey)
}
