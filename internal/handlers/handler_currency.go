package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/fxnow/fxnow/internal/core/ports/services"
	"github.com/fxnow/fxnow/internal/dto"
)

// currencyHandler handles HTTP requests related to currency metadata.
type currencyHandler struct {
	exchangeRateService portssvc.ExchangeRateSvcFacade
}

// registerCurrencyRoutes registers routes related to currencies.
func registerCurrencyRoutes(rg *gin.RouterGroup, exchangeRateService portssvc.ExchangeRateSvcFacade) {
	h := &currencyHandler{exchangeRateService: exchangeRateService}

	rg.GET("/currencies", h.listCurrencies)
}

// listCurrencies returns all known currencies with display metadata.
func (h *currencyHandler) listCurrencies(c *gin.Context) {
	currencies := h.exchangeRateService.ListCurrencies(c.Request.Context())
	c.JSON(http.StatusOK, dto.ToListCurrencyResponse(currencies))
}
