package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fxnow/fxnow/internal/apperrors"
	"github.com/fxnow/fxnow/internal/core/ports"
	portssvc "github.com/fxnow/fxnow/internal/core/ports/services"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
func RegisterRoutes(
	r *gin.Engine,
	exchangeRateService portssvc.ExchangeRateSvcFacade,
	upstreamLimiter ports.UpstreamLimiter,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	v1 := r.Group("/api/v1")

	registerCurrencyRoutes(v1, exchangeRateService)
	registerExchangeRateRoutes(v1, exchangeRateService)
	registerMonitoringRoutes(v1, upstreamLimiter)
}

// respondError maps chain errors onto transport status codes:
// validation 400, not found 404, upstream degraded or admission denied 503,
// anything else 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var rateLimitErr *apperrors.RateLimitError

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &rateLimitErr):
		logger.Warn("Upstream call budget exhausted",
			slog.Int64("count", rateLimitErr.Count),
			slog.Int64("limit", rateLimitErr.Limit),
			slog.Duration("required_wait", rateLimitErr.RequiredWait),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":             "Rate limit for the upstream source exhausted",
			"retryAfterSeconds": int(rateLimitErr.RequiredWait.Seconds()) + 1,
		})
	case errors.Is(err, apperrors.ErrUnavailable):
		logger.Error("Upstream unavailable", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Exchange rate source temporarily unavailable"})
	default:
		logger.Error("Unhandled error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
