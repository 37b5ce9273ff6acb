package blockchain

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLedgerUnavailable wraps every failure to record an operation
var ErrLedgerUnavailable = errors.New("ledger unavailable")

// Ledger operation names
const (
	OpCreateMarket = "Market::CreateMarket"
	OpPlaceTrade   = "Market::PlaceTrade"
	OpSubmitVote   = "Oracle::SubmitVote"
)

// Receipt describes one recorded ledger operation
type Receipt struct {
	TxHash    string    `json:"tx_hash"`
	ChainRef  string    `json:"chain_ref"`
	Operation string    `json:"operation"`
	LatencyMs float64   `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats summarizes recent ledger activity
type Stats struct {
	Mode             string  `json:"mode"`
	TransactionCount int64   `json:"transaction_count"`
	ChainCount       int64   `json:"chain_count"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	Window           int     `json:"window"`
}

// Ledger records market, oracle and bot operations on an external chain.
// Invoke returns an error wrapping ErrLedgerUnavailable when the operation
// was not recorded.
type Ledger interface {
	CreateChain(ctx context.Context, application string) (string, error)
	Invoke(ctx context.Context, chainRef, operation string, payload interface{}) (*Receipt, error)
	Stats() Stats
	Recent(limit int) []Receipt
}

// journal keeps the most recent receipts in a fixed-size ring and running
// totals for stats. Lifetime counters are kept; individual receipts are not.
type journal struct {
	mu       sync.Mutex
	ring     []Receipt
	next     int
	full     bool
	total    int64
	chains   int64
	latency  float64 // sum over the receipts currently in ring
	capacity int
}

func newJournal(capacity int) *journal {
	if capacity <= 0 {
		capacity = 1000
	}
	return &journal{ring: make([]Receipt, capacity), capacity: capacity}
}

func (j *journal) record(r Receipt) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.full {
		j.latency -= j.ring[j.next].LatencyMs
	}
	j.ring[j.next] = r
	j.latency += r.LatencyMs
	j.next = (j.next + 1) % j.capacity
	if j.next == 0 {
		j.full = true
	}
	j.total++
}

func (j *journal) addChain() {
	j.mu.Lock()
	j.chains++
	j.mu.Unlock()
}

func (j *journal) size() int {
	if j.full {
		return j.capacity
	}
	return j.next
}

func (j *journal) stats(mode string) Stats {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Stats{
		Mode:             mode,
		TransactionCount: j.total,
		ChainCount:       j.chains,
		Window:           j.size(),
	}
	if n := j.size(); n > 0 {
		s.AverageLatencyMs = j.latency / float64(n)
	}
	return s
}

// recent returns up to limit receipts, newest first
func (j *journal) recent(limit int) []Receipt {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := j.size()
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Receipt, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (j.next - i + j.capacity) % j.capacity
		out = append(out, j.ring[idx])
	}
	return out
}
