package services

import (
	"oracle-market/internal/models"

	"github.com/shopspring/decimal"
)

// MarkPrice values one share of an option: the current odds while the market
// is active, 1 or 0 once it resolved.
func MarkPrice(market *models.Market, optionIndex int) decimal.Decimal {
	if market.Status == models.MarketStatusResolved {
		if market.ResolvedOutcome != nil && *market.ResolvedOutcome == optionIndex {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	}
	if !market.HasOption(optionIndex) || optionIndex >= len(market.Odds) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(market.Odds[optionIndex])
}

// TradePnL is the mark-to-market profit of a single trade. A buy gains the
// current value of its shares minus the amount paid; a sell gains the amount
// received minus the current value of the shares sold.
func TradePnL(trade *models.Trade, market *models.Market) decimal.Decimal {
	amount := decimal.NewFromFloat(trade.Amount)
	value := trade.Shares().Mul(MarkPrice(market, trade.OptionIndex))
	if trade.IsBuy {
		return value.Sub(amount)
	}
	return amount.Sub(value)
}

// PortfolioPnL sums TradePnL over trades. Trades whose market is missing
// from markets are ignored.
func PortfolioPnL(trades []*models.Trade, markets map[uint]*models.Market) decimal.Decimal {
	total := decimal.Zero
	for _, t := range trades {
		m, ok := markets[t.MarketID]
		if !ok {
			continue
		}
		total = total.Add(TradePnL(t, m))
	}
	return total.Round(8)
}
