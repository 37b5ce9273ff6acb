package services

import (
	"testing"

	"oracle-market/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMarkPrice(t *testing.T) {
	active := &models.Market{Status: models.MarketStatusActive, Options: models.StringList{"A", "B"}, Odds: models.FloatList{0.25, 0.75}}
	assert.True(t, MarkPrice(active, 1).Equal(decimal.NewFromFloat(0.75)))
	assert.True(t, MarkPrice(active, 5).IsZero())

	outcome := 1
	resolved := &models.Market{Status: models.MarketStatusResolved, Options: models.StringList{"A", "B"}, Odds: models.FloatList{0.25, 0.75}, ResolvedOutcome: &outcome}
	assert.True(t, MarkPrice(resolved, 1).Equal(decimal.NewFromInt(1)))
	assert.True(t, MarkPrice(resolved, 0).IsZero())
}

func TestTradePnL(t *testing.T) {
	outcome := 0
	market := &models.Market{ID: 1, Status: models.MarketStatusResolved, Options: models.StringList{"A", "B"}, Odds: models.FloatList{0.5, 0.5}, ResolvedOutcome: &outcome}

	tests := []struct {
		name  string
		trade *models.Trade
		want  string
	}{
		{"winning buy", &models.Trade{MarketID: 1, OptionIndex: 0, Amount: 10, Price: 0.5, IsBuy: true}, "10"},
		{"losing buy", &models.Trade{MarketID: 1, OptionIndex: 1, Amount: 10, Price: 0.5, IsBuy: true}, "-10"},
		{"sell of the winner", &models.Trade{MarketID: 1, OptionIndex: 0, Amount: 10, Price: 0.5}, "-10"},
		{"sell of the loser", &models.Trade{MarketID: 1, OptionIndex: 1, Amount: 10, Price: 0.5}, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TradePnL(tt.trade, market).String())
		})
	}
}

func TestPortfolioPnLSkipsMissingMarkets(t *testing.T) {
	market := &models.Market{ID: 1, Status: models.MarketStatusActive, Options: models.StringList{"A", "B"}, Odds: models.FloatList{0.6, 0.4}}
	trades := []*models.Trade{
		{MarketID: 1, OptionIndex: 0, Amount: 5, Price: 0.5, IsBuy: true},
		{MarketID: 2, OptionIndex: 0, Amount: 100, Price: 0.5, IsBuy: true},
	}

	got := PortfolioPnL(trades, map[uint]*models.Market{1: market})
	assert.Equal(t, "1", got.String())
	assert.True(t, PortfolioPnL(nil, nil).IsZero())
}
