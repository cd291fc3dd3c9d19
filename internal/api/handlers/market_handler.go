// server/internal/api/handlers/market_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"tilapia-hub-api-server/internal/market"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct{}

func (h *MarketHandler) GetPrices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"prices":    market.Prices(),
		"locations": market.Locations(),
	})
}

// Estimate: /market/estimate?location=Kisumu&weightKg=10&quality=premium
func (h *MarketHandler) Estimate(c *gin.Context) {
	weight, err := strconv.ParseFloat(c.Query("weightKg"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weightKg must be a number"})
		return
	}
	est, err := market.EstimateCost(c.Query("location"), weight, market.Quality(c.Query("quality")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (h *MarketHandler) GetAlerts(c *gin.Context) {
	alerts := market.Alerts(market.Severity(c.Query("severity")))
	if alerts == nil {
		alerts = []market.DiseaseAlert{}
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": market.Summarize(alerts),
		"alerts":  alerts,
	})
}

func (h *MarketHandler) GetTips(c *gin.Context) {
	tips := market.Tips(c.Query("category"))
	if tips == nil {
		tips = []market.FarmTip{}
	}
	c.JSON(http.StatusOK, tips)
}
