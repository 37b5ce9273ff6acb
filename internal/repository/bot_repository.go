package repository

import (
	"context"

	"oracle-market/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateBot registers a trading bot
func (r *Repository) CreateBot(ctx context.Context, bot *models.TradingBot) error {
	return r.db.WithContext(ctx).Create(bot).Error
}

// GetBot retrieves a trading bot by ID
func (r *Repository) GetBot(ctx context.Context, id uint) (*models.TradingBot, error) {
	var bot models.TradingBot
	if err := r.db.WithContext(ctx).First(&bot, id).Error; err != nil {
		return nil, err
	}
	return &bot, nil
}

// ListBots returns all bots, optionally only the active ones
func (r *Repository) ListBots(ctx context.Context, activeOnly bool) ([]*models.TradingBot, error) {
	var bots []*models.TradingBot
	q := r.db.WithContext(ctx).Order("id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&bots).Error
	return bots, err
}

// IncrementBotTrades adds n to a bot's trade counter in a single statement
func (r *Repository) IncrementBotTrades(ctx context.Context, botID uint, n int) error {
	return r.db.WithContext(ctx).
		Model(&models.TradingBot{}).
		Where("id = ?", botID).
		UpdateColumn("total_trades", gorm.Expr("total_trades + ?", n)).Error
}

// SetBotProfitLoss stores a bot's recomputed profit/loss
func (r *Repository) SetBotProfitLoss(ctx context.Context, botID uint, pnl decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.TradingBot{}).
		Where("id = ?", botID).
		UpdateColumn("profit_loss", pnl).Error
}

// SetBotActive flips a bot on or off
func (r *Repository) SetBotActive(ctx context.Context, botID uint, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.TradingBot{}).
		Where("id = ?", botID).
		UpdateColumn("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
