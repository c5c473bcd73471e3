package handlers

import (
	"net/http"
	"time"

	"wedbook/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports gateway liveness with the last dependency probe.
type HealthHandler struct {
	StartedAt time.Time
}

// Health handles GET /health. The gateway itself is up whenever this answers.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"message":      "wedding booking gateway",
		"uptime":       time.Since(h.StartedAt).Round(time.Second).String(),
		"dependencies": utils.GetHealthStatus(),
	})
}
