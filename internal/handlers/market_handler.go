package handlers

import (
	"net/http"
	"time"

	"oracle-market/internal/auth"
	"oracle-market/internal/models"
	"oracle-market/internal/repository"
	"oracle-market/internal/services"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 200

type MarketHandler struct {
	markets *services.MarketService
}

func NewMarketHandler(markets *services.MarketService) *MarketHandler {
	return &MarketHandler{markets: markets}
}

// GetMarkets returns markets with optional status and category filters
// GET /api/markets?status=active&category=sports&limit=50&offset=0
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	markets, total, err := h.markets.ListMarkets(c.Request.Context(), repository.MarketFilter{
		Status:   models.MarketStatus(c.Query("status")),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   queryInt(c, "offset", 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
		"count":   len(markets),
		"total":   total,
	})
}

// GetMarketByID returns a market with its trades and oracle votes
// GET /api/markets/:id
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.markets.GetMarketDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, detail)
}

// CreateMarket opens a new market (operator only)
// POST /api/markets
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	var req struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		Category    string     `json:"category" binding:"required"`
		Options     []string   `json:"options" binding:"required,min=2"`
		Liquidity   float64    `json:"liquidity" binding:"gte=0"`
		EventTime   *time.Time `json:"event_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operator, _ := auth.GetOperator(c)
	res, err := h.markets.CreateMarket(c.Request.Context(), &services.CreateMarketRequest{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Options:     req.Options,
		Liquidity:   req.Liquidity,
		EventTime:   req.EventTime,
		CreatedBy:   operator,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, res)
}

// DeleteMarket removes a market and everything recorded against it (operator only)
// DELETE /api/markets/:id
func (h *MarketHandler) DeleteMarket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.markets.DeleteMarket(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": id})
}

// PlaceTrade buys or sells an option
// POST /api/markets/:id/trade
func (h *MarketHandler) PlaceTrade(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		OptionIndex   *int    `json:"option_index" binding:"required,gte=0"`
		Amount        float64 `json:"amount" binding:"required,gt=0"`
		IsBuy         *bool   `json:"is_buy" binding:"required"`
		TraderAddress string  `json:"trader_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.markets.ExecuteTrade(c.Request.Context(), &services.TradeRequest{
		MarketID:      id,
		OptionIndex:   *req.OptionIndex,
		Amount:        req.Amount,
		IsBuy:         *req.IsBuy,
		TraderAddress: req.TraderAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

// ResolveMarket settles a market on the given outcome (operator only)
// POST /api/markets/:id/resolve
func (h *MarketHandler) ResolveMarket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Outcome *int `json:"outcome" binding:"required,gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.markets.ResolveMarket(c.Request.Context(), id, *req.Outcome, models.ResolutionManual)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}
