package blockchain

import (
	"context"
	"time"

	"oracle-market/internal/logging"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const lamportsPerSOL = 1_000_000_000

// DiagnosticResult holds the result of a ledger connectivity check
type DiagnosticResult struct {
	Mode            string  `json:"mode"`
	RPCConnected    bool    `json:"rpc_connected"`
	RPCURL          string  `json:"rpc_url,omitempty"`
	RPCError        string  `json:"rpc_error,omitempty"`
	LatestBlockhash string  `json:"latest_blockhash,omitempty"`
	AuthorityPubkey string  `json:"authority_pubkey,omitempty"`
	AuthoritySOL    float64 `json:"authority_sol,omitempty"`
	BalanceError    string  `json:"balance_error,omitempty"`
	Timestamp       string  `json:"timestamp"`
}

// Diagnoser is implemented by ledgers that can check their own connectivity
type Diagnoser interface {
	Diagnose(ctx context.Context) *DiagnosticResult
}

// Diagnose always reports a healthy simulated ledger
func (l *SimulatedLedger) Diagnose(_ context.Context) *DiagnosticResult {
	return &DiagnosticResult{
		Mode:         "simulated",
		RPCConnected: true,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}

// Diagnose checks RPC connectivity and the authority wallet's balance
func (l *SolanaLedger) Diagnose(ctx context.Context) *DiagnosticResult {
	result := &DiagnosticResult{
		Mode:            "solana",
		RPCURL:          l.rpcURL,
		AuthorityPubkey: l.wallet.PublicKey().String(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}

	blockhash, err := l.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		result.RPCError = err.Error()
		logging.Logger.Warn("[Diagnostics] RPC check failed", zap.String("rpc_url", l.rpcURL), zap.Error(err))
		return result
	}
	result.RPCConnected = true
	result.LatestBlockhash = blockhash.Value.Blockhash.String()

	balance, err := l.rpcClient.GetBalance(ctx, l.wallet.PublicKey(), rpc.CommitmentFinalized)
	if err != nil {
		result.BalanceError = err.Error()
		return result
	}
	result.AuthoritySOL = float64(balance.Value) / lamportsPerSOL
	return result
}
