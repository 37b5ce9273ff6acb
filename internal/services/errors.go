package services

import (
	"errors"

	"oracle-market/internal/ai"
	"oracle-market/internal/blockchain"
)

// Validation errors
var ErrInvalidInput = errors.New("invalid input")

// Not found errors
var (
	ErrMarketNotFound = errors.New("market not found")
	ErrOracleNotFound = errors.New("oracle not found")
	ErrBotNotFound    = errors.New("bot not found")
)

// State errors
var (
	ErrMarketNotActive = errors.New("market is not active")
	ErrMarketResolved  = errors.New("market already resolved")
	ErrDuplicateVote   = errors.New("oracle already voted on this market")
	ErrOracleInactive  = errors.New("oracle is not active")
	ErrBotInactive     = errors.New("bot is not active")
	ErrConcurrentTrade = errors.New("market changed concurrently, retry")
)

// ErrLedgerUnavailable is returned when the ledger rejected or could not
// record an operation. Nothing is persisted in that case.
var ErrLedgerUnavailable = blockchain.ErrLedgerUnavailable

// AI errors
var (
	ErrAIDisabled    = errors.New("ai features are not configured")
	ErrAIUnavailable = ai.ErrUnavailable
	ErrAIResponse    = ai.ErrBadResponse
)
