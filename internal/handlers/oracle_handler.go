package handlers

import (
	"net/http"

	"oracle-market/internal/services"

	"github.com/gin-gonic/gin"
)

type OracleHandler struct {
	oracles *services.OracleService
}

func NewOracleHandler(oracles *services.OracleService) *OracleHandler {
	return &OracleHandler{oracles: oracles}
}

// GetOracles returns every registered oracle
// GET /api/oracles
func (h *OracleHandler) GetOracles(c *gin.Context) {
	oracles, err := h.oracles.ListOracles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    oracles,
		"count":   len(oracles),
	})
}

// RegisterOracle adds an oracle node (operator only)
// POST /api/oracles
func (h *OracleHandler) RegisterOracle(c *gin.Context) {
	var req services.RegisterOracleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oracle, err := h.oracles.RegisterOracle(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, oracle)
}

// SubmitVote records the oracle's vote on a market
// POST /api/oracles/:id/vote
func (h *OracleHandler) SubmitVote(c *gin.Context) {
	oracleID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		MarketID   uint     `json:"market_id" binding:"required"`
		Vote       *int     `json:"vote" binding:"required,gte=0"`
		Confidence *float64 `json:"confidence"`
		DataHash   string   `json:"data_hash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.oracles.SubmitVote(c.Request.Context(), &services.VoteRequest{
		OracleID:   oracleID,
		MarketID:   req.MarketID,
		Vote:       *req.Vote,
		Confidence: req.Confidence,
		DataHash:   req.DataHash,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

// GetVotes returns the votes cast on a market
// GET /api/oracles/votes/:marketId
func (h *OracleHandler) GetVotes(c *gin.Context) {
	marketID, ok := parseID(c, "marketId")
	if !ok {
		return
	}

	votes, err := h.oracles.GetVotes(c.Request.Context(), marketID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    votes,
		"count":   len(votes),
	})
}
