package handlers

import (
	"net/http"

	"oracle-market/internal/services"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	ai *services.AIService
}

func NewAIHandler(ai *services.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

// GenerateMarket asks the model for a market and opens it (operator only)
// POST /api/ai/generate-market
func (h *AIHandler) GenerateMarket(c *gin.Context) {
	var req services.GenerateMarketRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res, err := h.ai.GenerateMarket(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, res)
}

// AnalyzeMarket returns the model's analysis of a market
// POST /api/ai/analyze-market
func (h *AIHandler) AnalyzeMarket(c *gin.Context) {
	var req struct {
		MarketID uint `json:"market_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := h.ai.AnalyzeMarket(c.Request.Context(), req.MarketID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, analysis)
}

// FetchEvents returns market ideas for a category
// POST /api/ai/fetch-events
func (h *AIHandler) FetchEvents(c *gin.Context) {
	var req struct {
		Category string `json:"category" binding:"max=50"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ideas, err := h.ai.FetchEvents(c.Request.Context(), req.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ideas,
		"count":   len(ideas),
	})
}

// OracleData asks the model for a market's outcome and, when oracle_id is
// given, submits it as that oracle's vote (operator only)
// POST /api/ai/oracle-data
func (h *AIHandler) OracleData(c *gin.Context) {
	var req struct {
		MarketID uint `json:"market_id" binding:"required"`
		OracleID uint `json:"oracle_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.ai.OracleData(c.Request.Context(), req.MarketID, req.OracleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}
