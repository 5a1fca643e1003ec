package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/utils"
)

// analyticsHandler serves spending aggregates.
type analyticsHandler struct {
	store portssvc.StoreSvcFacade
}

func newAnalyticsHandler(store portssvc.StoreSvcFacade) *analyticsHandler {
	return &analyticsHandler{store: store}
}

// registerAnalyticsRoutes registers routes related to analytics.
func registerAnalyticsRoutes(rg *gin.RouterGroup, store portssvc.StoreSvcFacade) {
	h := newAnalyticsHandler(store)

	analytics := rg.Group("/analytics")
	{
		analytics.GET("/summary", h.getSummary)
	}
}

// getSummary godoc
// @Summary Get the balance and spending summary
// @Description Aggregates who owes whom, plus spending by category and month; settlements are excluded from spending
// @Tags analytics
// @Produce  json
// @Success 200 {object} dto.SummaryResponse
// @Security BearerAuth
// @Router /analytics/summary [get]
func (h *analyticsHandler) getSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Summary(c.Request.Context()))
}

// registerCurrencyRoutes registers the supported-currencies listing.
func registerCurrencyRoutes(rg *gin.RouterGroup) {
	rg.GET("/currencies", listCurrencies)
}

// listCurrencies godoc
// @Summary List supported display currencies
// @Tags currencies
// @Produce  json
// @Success 200 {array} map[string]string
// @Security BearerAuth
// @Router /currencies [get]
func listCurrencies(c *gin.Context) {
	codes := utils.SupportedCurrencies()
	currencies := make([]gin.H, len(codes))
	for i, code := range codes {
		currencies[i] = gin.H{"code": code, "symbol": utils.CurrencySymbol(code)}
	}
	c.JSON(http.StatusOK, currencies)
}
