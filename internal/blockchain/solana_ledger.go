package blockchain

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"oracle-market/internal/logging"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SPL Memo program
var memoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TYKJ39XmShiQDcHqA3PHxH")

// SolanaLedger records each operation as a memo transaction signed by the
// server wallet. The memo carries the chain reference, the operation name
// and a SHA-256 digest of the payload.
type SolanaLedger struct {
	rpcClient *rpc.Client
	rpcURL    string
	wallet    *solana.Wallet
	network   string
	limiter   *rate.Limiter
	journal   *journal
}

// SolanaLedgerConfig configures SolanaLedger
type SolanaLedgerConfig struct {
	Network     string
	RPCURL      string // overrides the network's public endpoint
	PrivateKey  string // base58
	RateLimit   float64
	HistorySize int
}

// NewSolanaLedger creates a Solana-backed ledger
func NewSolanaLedger(cfg SolanaLedgerConfig) (*SolanaLedger, error) {
	wallet, err := solana.WalletFromPrivateKeyBase58(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger wallet: %w", err)
	}

	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = rpcEndpoint(cfg.Network)
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	logging.Logger.Info("[Ledger] solana wallet loaded",
		zap.String("network", cfg.Network),
		zap.String("authority", wallet.PublicKey().String()),
	)

	return &SolanaLedger{
		rpcClient: rpc.New(rpcURL),
		rpcURL:    rpcURL,
		wallet:    wallet,
		network:   cfg.Network,
		limiter:   rate.NewLimiter(limit, 1),
		journal:   newJournal(cfg.HistorySize),
	}, nil
}

func rpcEndpoint(network string) string {
	switch network {
	case "mainnet-beta":
		return "https://api.mainnet-beta.solana.com"
	case "testnet":
		return "https://api.testnet.solana.com"
	case "localnet":
		return "http://127.0.0.1:8899"
	default:
		return "https://api.devnet.solana.com"
	}
}

// CreateChain returns a new chain reference. Solana has no per-application
// chains; the reference only groups memos.
func (l *SolanaLedger) CreateChain(ctx context.Context, application string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	l.journal.addChain()
	return "sol_" + uuid.NewString()[:8], nil
}

// Invoke sends a memo transaction for the operation and waits for the RPC
// node to accept it.
func (l *SolanaLedger) Invoke(ctx context.Context, chainRef, operation string, payload interface{}) (*Receipt, error) {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	memo, err := buildMemo(chainRef, operation, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	authority := l.wallet.PublicKey()
	instruction := solana.NewInstruction(
		memoProgramID,
		solana.AccountMetaSlice{
			{PublicKey: authority, IsSigner: true, IsWritable: false},
		},
		memo,
	)

	recent, err := l.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get recent blockhash: %v", ErrLedgerUnavailable, err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(authority),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build transaction: %v", ErrLedgerUnavailable, err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(authority) {
			return &l.wallet.PrivateKey
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sign transaction: %v", ErrLedgerUnavailable, err)
	}

	sig, err := l.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send transaction: %v", ErrLedgerUnavailable, err)
	}

	receipt := Receipt{
		TxHash:    sig.String(),
		ChainRef:  chainRef,
		Operation: operation,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		Timestamp: time.Now().UTC(),
	}
	l.journal.record(receipt)
	return &receipt, nil
}

// Stats returns aggregate statistics over the retained receipts
func (l *SolanaLedger) Stats() Stats {
	return l.journal.stats("solana:" + l.network)
}

// Recent returns the newest receipts first
func (l *SolanaLedger) Recent(limit int) []Receipt {
	return l.journal.recent(limit)
}

// buildMemo renders "<chainRef>|<operation>|<sha256(payload)>"
func buildMemo(chainRef, operation string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	digest := sha256.Sum256(data)
	return []byte(fmt.Sprintf("%s|%s|%x", chainRef, operation, digest)), nil
}
