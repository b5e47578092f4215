package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/fxnow/fxnow/internal/core/ports/services"
	"github.com/fxnow/fxnow/internal/dto"
	"github.com/fxnow/fxnow/internal/middleware"
)

// exchangeRateHandler handles HTTP requests related to exchange rates.
type exchangeRateHandler struct {
	exchangeRateService portssvc.ExchangeRateSvcFacade
}

// newExchangeRateHandler creates a new exchangeRateHandler.
func newExchangeRateHandler(ers portssvc.ExchangeRateSvcFacade) *exchangeRateHandler {
	return &exchangeRateHandler{
		exchangeRateService: ers,
	}
}

// registerExchangeRateRoutes registers routes related to exchange rates.
func registerExchangeRateRoutes(rg *gin.RouterGroup, exchangeRateService portssvc.ExchangeRateSvcFacade) {
	h := newExchangeRateHandler(exchangeRateService)

	rates := rg.Group("/rates")
	{
		rates.GET("/current/:currency", h.getCurrentRate)
		rates.GET("/chart/:currency", h.getChart)
	}
	rg.POST("/exchange/convert", h.convert)
}

// getCurrentRate resolves the latest rate for one currency against KRW.
func (h *exchangeRateHandler) getCurrentRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	currencyCode := c.Param("currency")

	logger = logger.With(slog.String("currency", currencyCode))
	logger.Info("Received request for current rate")

	rate, err := h.exchangeRateService.GetCurrentRate(c.Request.Context(), currencyCode)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrentRateResponse(rate))
}

// getChart assembles the rate chart for a currency over the requested period.
// The target currency defaults to KRW and must be KRW.
func (h *exchangeRateHandler) getChart(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	currencyCode := c.Param("currency")
	periodCode := c.DefaultQuery("period", "1m")
	targetCode := c.DefaultQuery("target", "KRW")

	logger = logger.With(
		slog.String("currency", currencyCode),
		slog.String("period", periodCode),
	)
	logger.Info("Received request for rate chart")

	chart, err := h.exchangeRateService.GetChart(c.Request.Context(), currencyCode, targetCode, periodCode)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToChartResponse(chart))
}

// convert converts an amount between two currencies at the current rate.
func (h *exchangeRateHandler) convert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Convert", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(
		slog.String("from", req.FromCurrencyCode),
		slog.String("to", req.ToCurrencyCode),
		slog.Any("amount", req.Amount),
	)
	logger.Info("Received request to convert amount")

	result, err := h.exchangeRateService.Convert(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToConversionResponse(result))
}
