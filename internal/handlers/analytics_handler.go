package handlers

import (
	"net/http"

	"oracle-market/internal/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GET /api/analytics/overview
func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	overview, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, overview)
}

// GET /api/analytics/volume?days=30
func (h *AnalyticsHandler) GetVolumeHistory(c *gin.Context) {
	points, err := h.analytics.VolumeHistory(c.Request.Context(), queryInt(c, "days", 30))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, points)
}

// GET /api/analytics/top-markets
func (h *AnalyticsHandler) GetTopMarkets(c *gin.Context) {
	markets, err := h.analytics.TopMarkets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, markets)
}

// GET /api/analytics/oracles
func (h *AnalyticsHandler) GetOraclePerformance(c *gin.Context) {
	perf, err := h.analytics.OraclePerformance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, perf)
}

// GET /api/analytics/bots
func (h *AnalyticsHandler) GetBotLeaderboard(c *gin.Context) {
	board, err := h.analytics.BotLeaderboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, board)
}

// GET /api/analytics/events
func (h *AnalyticsHandler) GetRecentEvents(c *gin.Context) {
	events, err := h.analytics.RecentEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, events)
}

// GET /api/analytics/categories
func (h *AnalyticsHandler) GetCategoryBreakdown(c *gin.Context) {
	stats, err := h.analytics.CategoryBreakdown(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
