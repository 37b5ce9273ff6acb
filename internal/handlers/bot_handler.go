package handlers

import (
	"net/http"

	"oracle-market/internal/services"

	"github.com/gin-gonic/gin"
)

type BotHandler struct {
	bots *services.BotService
}

func NewBotHandler(bots *services.BotService) *BotHandler {
	return &BotHandler{bots: bots}
}

// GetBots returns every trading bot
// GET /api/bots
func (h *BotHandler) GetBots(c *gin.Context) {
	bots, err := h.bots.ListBots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bots,
		"count":   len(bots),
	})
}

// GetBot returns a bot with its recent trades
// GET /api/bots/:id
func (h *BotHandler) GetBot(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bot, err := h.bots.GetBot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, bot)
}

// CreateBot registers a new bot (operator only)
// POST /api/bots
func (h *BotHandler) CreateBot(c *gin.Context) {
	var req services.CreateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bot, err := h.bots.CreateBot(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, bot)
}

// ExecuteBot runs the bot's strategy once
// POST /api/bots/:id/execute
func (h *BotHandler) ExecuteBot(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	exec, err := h.bots.ExecuteBot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, exec)
}

// ToggleBot switches a bot on or off (operator only)
// PATCH /api/bots/:id/toggle
func (h *BotHandler) ToggleBot(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bot, err := h.bots.ToggleBot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, bot)
}
