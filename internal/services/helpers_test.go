package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"oracle-market/internal/blockchain"
	"oracle-market/internal/models"
	"oracle-market/internal/repository"
	"oracle-market/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	Type string
	Data interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Data: data})
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// failingLedger rejects every operation
type failingLedger struct{}

func (failingLedger) CreateChain(context.Context, string) (string, error) {
	return "", blockchain.ErrLedgerUnavailable
}

func (failingLedger) Invoke(context.Context, string, string, interface{}) (*blockchain.Receipt, error) {
	return nil, blockchain.ErrLedgerUnavailable
}

func (failingLedger) Stats() blockchain.Stats         { return blockchain.Stats{} }
func (failingLedger) Recent(int) []blockchain.Receipt { return nil }

type testEnv struct {
	db        *gorm.DB
	repo      *repository.Repository
	ledger    *blockchain.SimulatedLedger
	publisher *recordingPublisher
	markets   *MarketService
	oracles   *OracleService
	bots      *BotService
	analytics *AnalyticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	ledger := blockchain.NewSimulatedLedger(blockchain.SimulatedLedgerConfig{})
	pub := &recordingPublisher{}
	markets := NewMarketService(repo, ledger, pub)

	return &testEnv{
		db:        db,
		repo:      repo,
		ledger:    ledger,
		publisher: pub,
		markets:   markets,
		oracles:   NewOracleService(repo, markets, ledger, pub),
		bots:      NewBotService(repo, markets, pub),
		analytics: NewAnalyticsService(repo),
	}
}

func (e *testEnv) createMarket(t *testing.T, options ...string) *models.Market {
	t.Helper()
	if len(options) == 0 {
		options = []string{"Yes", "No"}
	}
	res, err := e.markets.CreateMarket(context.Background(), &CreateMarketRequest{
		Title:    "Will the home team win?",
		Category: "sports",
		Options:  options,
	})
	require.NoError(t, err)
	return res.Market
}

// insertMarket stores a market with the given odds, bypassing the service
func (e *testEnv) insertMarket(t *testing.T, odds []float64, eventTime *time.Time) *models.Market {
	t.Helper()
	options := make(models.StringList, len(odds))
	for i := range options {
		options[i] = string(rune('A' + i))
	}
	m := &models.Market{
		ChainRef:  "chain_test",
		Title:     "seeded",
		Category:  "crypto",
		Options:   options,
		Odds:      models.FloatList(odds),
		Liquidity: models.DefaultLiquidity,
		Status:    models.MarketStatusActive,
		EventTime: eventTime,
		CreatedBy: "test",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.repo.CreateMarket(context.Background(), m))
	return m
}

func (e *testEnv) registerOracle(t *testing.T, name string) *models.OracleNode {
	t.Helper()
	o, err := e.oracles.RegisterOracle(context.Background(), &RegisterOracleRequest{Name: name, DataSource: name + ".example"})
	require.NoError(t, err)
	return o
}

func floatPtr(v float64) *float64 { return &v }

func zeroLedger() *blockchain.SimulatedLedger {
	return blockchain.NewSimulatedLedger(blockchain.SimulatedLedgerConfig{})
}
