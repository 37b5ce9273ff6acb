package blockchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedLedgerInvoke(t *testing.T) {
	l := NewSimulatedLedger(SimulatedLedgerConfig{MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
	ctx := context.Background()

	ref, err := l.CreateChain(ctx, "market")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "chain_"))

	receipt, err := l.Invoke(ctx, ref, OpPlaceTrade, map[string]int{"amount": 10})
	require.NoError(t, err)
	assert.Equal(t, ref, receipt.ChainRef)
	assert.Equal(t, OpPlaceTrade, receipt.Operation)
	assert.GreaterOrEqual(t, receipt.LatencyMs, 1.0)

	raw, err := base58.Decode(receipt.TxHash)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	stats := l.Stats()
	assert.Equal(t, int64(1), stats.TransactionCount)
	assert.Equal(t, int64(1), stats.ChainCount)
	assert.Equal(t, "simulated", stats.Mode)
}

func TestSimulatedLedgerCancelled(t *testing.T) {
	l := NewSimulatedLedger(SimulatedLedgerConfig{MinDelay: time.Second, MaxDelay: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Invoke(ctx, "chain_x", OpPlaceTrade, nil)
	assert.True(t, errors.Is(err, ErrLedgerUnavailable))
	assert.Equal(t, int64(0), l.Stats().TransactionCount)
}

func TestSimulatedLedgerFailureRate(t *testing.T) {
	l := NewSimulatedLedger(SimulatedLedgerConfig{FailureRate: 1})
	_, err := l.Invoke(context.Background(), "chain_x", OpSubmitVote, nil)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
}

func TestJournalIsBounded(t *testing.T) {
	j := newJournal(3)
	for i := 1; i <= 5; i++ {
		j.record(Receipt{TxHash: fmt.Sprintf("tx%d", i), LatencyMs: float64(i)})
	}

	stats := j.stats("test")
	assert.Equal(t, int64(5), stats.TransactionCount)
	assert.Equal(t, 3, stats.Window)
	// average over the retained receipts 3, 4, 5
	assert.InDelta(t, 4.0, stats.AverageLatencyMs, 1e-9)

	recent := j.recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "tx5", recent[0].TxHash)
	assert.Equal(t, "tx3", recent[2].TxHash)

	assert.Len(t, j.recent(2), 2)
}

func TestJournalConcurrentRecord(t *testing.T) {
	j := newJournal(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 10; k++ {
				j.record(Receipt{LatencyMs: 1})
			}
		}()
	}
	wg.Wait()

	stats := j.stats("test")
	assert.Equal(t, int64(200), stats.TransactionCount)
	assert.Equal(t, 50, stats.Window)
	assert.InDelta(t, 1.0, stats.AverageLatencyMs, 1e-9)
}

func TestNewSolanaLedger(t *testing.T) {
	_, err := NewSolanaLedger(SolanaLedgerConfig{Network: "devnet", PrivateKey: "not-a-key"})
	assert.Error(t, err)

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	l, err := NewSolanaLedger(SolanaLedgerConfig{Network: "devnet", PrivateKey: key.String(), RateLimit: 2})
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), l.wallet.PublicKey())
	assert.Equal(t, "solana:devnet", l.Stats().Mode)

	ref, err := l.CreateChain(context.Background(), "market")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "sol_"))
}

func TestBuildMemo(t *testing.T) {
	memo, err := buildMemo("chain_1", OpSubmitVote, map[string]int{"outcome": 1})
	require.NoError(t, err)

	parts := strings.Split(string(memo), "|")
	require.Len(t, parts, 3)
	assert.Equal(t, "chain_1", parts[0])
	assert.Equal(t, OpSubmitVote, parts[1])
	assert.Len(t, parts[2], 64)
}

func TestRPCEndpoint(t *testing.T) {
	assert.Contains(t, rpcEndpoint("mainnet-beta"), "mainnet")
	assert.Contains(t, rpcEndpoint("unknown"), "devnet")
}

func TestSimulatedLedgerDiagnose(t *testing.T) {
	var l Ledger = NewSimulatedLedger(SimulatedLedgerConfig{})
	d, ok := l.(Diagnoser)
	require.True(t, ok)

	res := d.Diagnose(context.Background())
	assert.Equal(t, "simulated", res.Mode)
	assert.True(t, res.RPCConnected)
}
