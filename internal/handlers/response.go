package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"oracle-market/internal/logging"
	"oracle-market/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrMarketNotFound),
		errors.Is(err, services.ErrOracleNotFound),
		errors.Is(err, services.ErrBotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrMarketNotActive),
		errors.Is(err, services.ErrMarketResolved),
		errors.Is(err, services.ErrDuplicateVote),
		errors.Is(err, services.ErrOracleInactive),
		errors.Is(err, services.ErrBotInactive),
		errors.Is(err, services.ErrConcurrentTrade):
		status = http.StatusConflict
	case errors.Is(err, services.ErrLedgerUnavailable),
		errors.Is(err, services.ErrAIUnavailable),
		errors.Is(err, services.ErrAIResponse):
		status = http.StatusBadGateway
	case errors.Is(err, services.ErrAIDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logging.Logger.Error("[HTTP] request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil || v < 0 {
		return def
	}
	return v
}
