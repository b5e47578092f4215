package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fxnow/fxnow/internal/core/ports"
	"github.com/fxnow/fxnow/internal/middleware"
)

// monitoringHandler exposes the upstream call budget for operators.
type monitoringHandler struct {
	limiter ports.UpstreamLimiter
}

// registerMonitoringRoutes registers operational endpoints.
func registerMonitoringRoutes(rg *gin.RouterGroup, limiter ports.UpstreamLimiter) {
	h := &monitoringHandler{limiter: limiter}

	rg.GET("/monitoring/upstream", h.upstreamBudget)
}

// upstreamBudget reports the current window count and whether another call
// would be admitted. The check is side-effect-free.
func (h *monitoringHandler) upstreamBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	count, err := h.limiter.CurrentCount(c.Request.Context())
	if err != nil {
		respondError(c, logger, err)
		return
	}
	hasCapacity, err := h.limiter.HasCapacity(c.Request.Context())
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"callsInWindow": count,
		"limit":         h.limiter.Limit(),
		"hasCapacity":   hasCapacity,
	})
}
