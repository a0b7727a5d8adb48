package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	checker HealthChecker
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if err := h.checker.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
