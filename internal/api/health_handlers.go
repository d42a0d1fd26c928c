package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Harish222600/sonica-backend/internal/health"
)

func (h *Handlers) healthz(c *gin.Context) {
	h.health.Readiness(c.Writer, c.Request)
}

func (h *Handlers) livez(c *gin.Context) {
	health.Liveness(c.Writer, c.Request)
}
