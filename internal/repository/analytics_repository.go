package repository

import (
	"context"

	"oracle-market/internal/models"
)

// MarketTotals are the headline counters for the analytics overview
type MarketTotals struct {
	TotalMarkets    int64
	ActiveMarkets   int64
	ResolvedMarkets int64
	TotalVolume     float64
	TotalTrades     int64
	TotalOracles    int64
	ActiveOracles   int64
	TotalVotes      int64
	TotalBots       int64
	ActiveBots      int64
}

// CategoryStat aggregates markets by category
type CategoryStat struct {
	Category    string  `json:"category"`
	MarketCount int64   `json:"market_count"`
	TotalVolume float64 `json:"total_volume"`
}

// CountTotals gathers the overview counters
func (r *Repository) CountTotals(ctx context.Context) (*MarketTotals, error) {
	db := r.db.WithContext(ctx)
	t := &MarketTotals{}

	counts := []struct {
		model interface{}
		where string
		arg   interface{}
		dst   *int64
	}{
		{&models.Market{}, "", nil, &t.TotalMarkets},
		{&models.Market{}, "status = ?", models.MarketStatusActive, &t.ActiveMarkets},
		{&models.Market{}, "status = ?", models.MarketStatusResolved, &t.ResolvedMarkets},
		{&models.Trade{}, "", nil, &t.TotalTrades},
		{&models.OracleNode{}, "", nil, &t.TotalOracles},
		{&models.OracleNode{}, "is_active = ?", true, &t.ActiveOracles},
		{&models.OracleVote{}, "", nil, &t.TotalVotes},
		{&models.TradingBot{}, "", nil, &t.TotalBots},
		{&models.TradingBot{}, "is_active = ?", true, &t.ActiveBots},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.arg)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Model(&models.Market{}).
		Select("COALESCE(SUM(total_volume), 0)").
		Scan(&t.TotalVolume).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// TopMarketsByVolume returns the markets with the highest traded volume
func (r *Repository) TopMarketsByVolume(ctx context.Context, limit int) ([]*models.Market, error) {
	var markets []*models.Market
	err := r.db.WithContext(ctx).
		Order("total_volume DESC").
		Order("id ASC").
		Limit(limit).
		Find(&markets).Error
	return markets, err
}

// CategoryBreakdown groups markets by category
func (r *Repository) CategoryBreakdown(ctx context.Context) ([]CategoryStat, error) {
	var stats []CategoryStat
	err := r.db.WithContext(ctx).
		Model(&models.Market{}).
		Select("category, COUNT(*) AS market_count, COALESCE(SUM(total_volume), 0) AS total_volume").
		Group("category").
		Order("market_count DESC").
		Scan(&stats).Error
	return stats, err
}

// ListAllVotes returns every vote (oracle performance is computed from these)
func (r *Repository) ListAllVotes(ctx context.Context) ([]*models.OracleVote, error) {
	var votes []*models.OracleVote
	err := r.db.WithContext(ctx).Order("id ASC").Find(&votes).Error
	return votes, err
}

// ListBotsByProfit returns bots ordered by profit/loss, best first
func (r *Repository) ListBotsByProfit(ctx context.Context, limit int) ([]*models.TradingBot, error) {
	var bots []*models.TradingBot
	err := r.db.WithContext(ctx).
		Order("profit_loss DESC").
		Order("id ASC").
		Limit(limit).
		Find(&bots).Error
	return bots, err
}
