package blockchain

import (
	"context"
	"crypto/rand"
	"fmt"
	mrand "math/rand/v2"
	"time"

	"oracle-market/internal/logging"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// SimulatedLedgerConfig configures SimulatedLedger
type SimulatedLedgerConfig struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	HistorySize int
	// FailureRate is the probability in [0,1] that an Invoke fails
	FailureRate float64
}

// SimulatedLedger stands in for a real chain. Each operation waits a random
// delay and returns a base58 transaction hash.
type SimulatedLedger struct {
	cfg     SimulatedLedgerConfig
	journal *journal
}

// NewSimulatedLedger creates a simulated ledger
func NewSimulatedLedger(cfg SimulatedLedgerConfig) *SimulatedLedger {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &SimulatedLedger{
		cfg:     cfg,
		journal: newJournal(cfg.HistorySize),
	}
}

// CreateChain allocates a new chain reference for an application
func (l *SimulatedLedger) CreateChain(ctx context.Context, application string) (string, error) {
	if err := l.wait(ctx); err != nil {
		return "", err
	}
	ref := "chain_" + uuid.NewString()[:8]
	l.journal.addChain()
	logging.Logger.Debug("[Ledger] chain created",
		zap.String("application", application),
		zap.String("chain_ref", ref),
	)
	return ref, nil
}

// Invoke records an operation after a simulated confirmation delay
func (l *SimulatedLedger) Invoke(ctx context.Context, chainRef, operation string, payload interface{}) (*Receipt, error) {
	start := time.Now()
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	if l.cfg.FailureRate > 0 && mrand.Float64() < l.cfg.FailureRate {
		return nil, fmt.Errorf("%w: simulated failure for %s", ErrLedgerUnavailable, operation)
	}

	hash, err := randomTxHash()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	receipt := Receipt{
		TxHash:    hash,
		ChainRef:  chainRef,
		Operation: operation,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		Timestamp: time.Now().UTC(),
	}
	l.journal.record(receipt)
	return &receipt, nil
}

// Stats returns aggregate statistics over the retained receipts
func (l *SimulatedLedger) Stats() Stats {
	return l.journal.stats("simulated")
}

// Recent returns the newest receipts first
func (l *SimulatedLedger) Recent(limit int) []Receipt {
	return l.journal.recent(limit)
}

func (l *SimulatedLedger) wait(ctx context.Context) error {
	delay := l.cfg.MinDelay
	if spread := l.cfg.MaxDelay - l.cfg.MinDelay; spread > 0 {
		delay += time.Duration(mrand.Int64N(int64(spread)))
	}
	if delay <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// randomTxHash returns a signature-sized random value in base58
func randomTxHash() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base58.Encode(buf), nil
}
