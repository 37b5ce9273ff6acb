package repository

import (
	"context"
	"time"

	"oracle-market/internal/models"

	"github.com/shopspring/decimal"
)

// InsertTrade records an executed trade
func (r *Repository) InsertTrade(ctx context.Context, trade *models.Trade) error {
	return r.db.WithContext(ctx).Create(trade).Error
}

// ListTradesByMarket returns a market's trades in execution order
func (r *Repository) ListTradesByMarket(ctx context.Context, marketID uint) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("id ASC").
		Find(&trades).Error
	return trades, err
}

// ListTradesByTrader returns a trader's trades, newest first. limit <= 0 means all.
func (r *Repository) ListTradesByTrader(ctx context.Context, trader string, limit int) ([]*models.Trade, error) {
	var trades []*models.Trade
	q := r.db.WithContext(ctx).
		Where("trader_address = ?", trader).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&trades).Error
	return trades, err
}

// ListTradesSince returns trades created at or after since
func (r *Repository) ListTradesSince(ctx context.Context, since time.Time) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&trades).Error
	return trades, err
}

// SetTradePayout stores the payout for a winning trade
func (r *Repository) SetTradePayout(ctx context.Context, tradeID uint, payout decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("id = ?", tradeID).
		Update("payout", payout).Error
}
