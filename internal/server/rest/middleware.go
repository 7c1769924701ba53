package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// requestIDMiddleware keeps a well-formed incoming request id or makes one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(ctxRequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				panicRecoveries.Inc()
				h.logger.Error(c.Request.Context(), "panic recovered",
					"error", fmt.Sprintf("%v", p),
					"request_id", requestID(c),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				writeError(c, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", true, nil)
			}
		}()
		c.Next()
	}
}

func (h *Handler) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug(c.Request.Context(), "request completed",
			"request_id", requestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// authMiddleware resolves the Authorization header into a user and stores
// it in the gin context. Both "Bearer <token>" and "Token <token>" are
// accepted.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := tokenFromHeader(c.GetHeader("Authorization"))
		if !ok {
			h.fail(c, common.ErrorUnauthorized)
			return
		}

		u, err := h.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			h.fail(c, err)
			return
		}

		c.Set(ctxUserKey, u)
		c.Next()
	}
}

func tokenFromHeader(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
