package services

import (
	"encoding/json"
	"math"
	"strconv"

	"oracle-market/internal/models"
)

// Strategy thresholds
const (
	momentumThreshold   = 0.6
	contrarianThreshold = 0.3
	arbitrageSumCeiling = 0.95
	arbitrageLegCeiling = 0.5

	defaultTradeSize          = 10.0
	defaultArbitrageTradeSize = 5.0
)

// TradeDecision is a trade a strategy wants to place
type TradeDecision struct {
	MarketID    uint    `json:"market_id"`
	OptionIndex int     `json:"option_index"`
	Amount      float64 `json:"amount"`
	IsBuy       bool    `json:"is_buy"`
}

// EvaluateStrategy returns the trades a bot's strategy wants to place on the
// given markets. It has no side effects; unknown strategies place nothing.
func EvaluateStrategy(bot *models.TradingBot, markets []*models.Market) []TradeDecision {
	var decisions []TradeDecision

	switch bot.Strategy {
	case models.StrategyMomentum:
		size := tradeSize(bot.Config, defaultTradeSize)
		for _, m := range markets {
			idx := LeadingOption(m.Odds)
			if idx >= 0 && m.Odds[idx] > momentumThreshold {
				decisions = append(decisions, TradeDecision{MarketID: m.ID, OptionIndex: idx, Amount: size, IsBuy: true})
			}
		}

	case models.StrategyContrarian:
		size := tradeSize(bot.Config, defaultTradeSize)
		for _, m := range markets {
			idx := TrailingOption(m.Odds)
			if idx >= 0 && m.Odds[idx] < contrarianThreshold {
				decisions = append(decisions, TradeDecision{MarketID: m.ID, OptionIndex: idx, Amount: size, IsBuy: true})
			}
		}

	case models.StrategyArbitrage:
		size := tradeSize(bot.Config, defaultArbitrageTradeSize)
		for _, m := range markets {
			sum := 0.0
			for _, v := range m.Odds {
				sum += v
			}
			if sum >= arbitrageSumCeiling {
				continue
			}
			for idx, v := range m.Odds {
				if v < arbitrageLegCeiling {
					decisions = append(decisions, TradeDecision{MarketID: m.ID, OptionIndex: idx, Amount: size, IsBuy: true})
				}
			}
		}
	}

	return decisions
}

// IsKnownStrategy reports whether s is one of the supported strategies
func IsKnownStrategy(s models.BotStrategy) bool {
	switch s {
	case models.StrategyMomentum, models.StrategyContrarian, models.StrategyArbitrage:
		return true
	}
	return false
}

// tradeSize reads "tradeSize" from a bot config. Missing, non-numeric and
// non-positive values fall back to def.
func tradeSize(config models.JSONMap, def float64) float64 {
	var size float64
	switch v := config["tradeSize"].(type) {
	case float64:
		size = v
	case int:
		size = float64(v)
	case int64:
		size = float64(v)
	case json.Number:
		size, _ = v.Float64()
	case string:
		size, _ = strconv.ParseFloat(v, 64)
	}
	if !(size > 0) || math.IsInf(size, 1) {
		return def
	}
	return size
}
