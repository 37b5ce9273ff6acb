package handlers

import (
	"net/http"

	"oracle-market/internal/blockchain"

	"github.com/gin-gonic/gin"
)

const maxLedgerHistory = 100

type LedgerHandler struct {
	ledger blockchain.Ledger
}

func NewLedgerHandler(ledger blockchain.Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// GetStats returns transaction count, chain count and average latency
// GET /api/ledger/stats
func (h *LedgerHandler) GetStats(c *gin.Context) {
	respondOK(c, http.StatusOK, h.ledger.Stats())
}

// GetTransactions returns the most recent ledger receipts
// GET /api/ledger/transactions?limit=20
func (h *LedgerHandler) GetTransactions(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	if limit == 0 || limit > maxLedgerHistory {
		limit = maxLedgerHistory
	}
	receipts := h.ledger.Recent(limit)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    receipts,
		"count":   len(receipts),
	})
}

// GetDiagnostics checks the ledger's connectivity
// GET /api/ledger/diagnostics
func (h *LedgerHandler) GetDiagnostics(c *gin.Context) {
	d, ok := h.ledger.(blockchain.Diagnoser)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Diagnostics not supported by this ledger"})
		return
	}
	result := d.Diagnose(c.Request.Context())
	status := http.StatusOK
	if !result.RPCConnected {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success": result.RPCConnected,
		"data":    result,
	})
}
