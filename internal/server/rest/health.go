package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}

func (h *Handler) readiness(c *gin.Context) {
	if err := h.ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "not_ready",
			Timestamp: time.Now().UTC(),
			Reason:    err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ready", Timestamp: time.Now().UTC()})
}
