package repository

import (
	"context"
	"time"

	"oracle-market/internal/models"

	"gorm.io/gorm"
)

// MarketFilter narrows ListMarkets. Empty fields match everything.
type MarketFilter struct {
	Status   models.MarketStatus
	Category string
	Limit    int
	Offset   int
}

// CreateMarket inserts a new market
func (r *Repository) CreateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

// GetMarket retrieves a market by ID
func (r *Repository) GetMarket(ctx context.Context, id uint) (*models.Market, error) {
	var market models.Market
	if err := r.db.WithContext(ctx).First(&market, id).Error; err != nil {
		return nil, err
	}
	return &market, nil
}

// LockMarket reads a market and locks its row until the surrounding
// transaction ends. Only meaningful on a transaction-bound repository.
func (r *Repository) LockMarket(ctx context.Context, id uint) (*models.Market, error) {
	var market models.Market
	if err := r.forUpdate(r.db.WithContext(ctx)).First(&market, id).Error; err != nil {
		return nil, err
	}
	return &market, nil
}

// ListMarkets returns markets newest first
func (r *Repository) ListMarkets(ctx context.Context, filter MarketFilter) ([]*models.Market, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Market{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var markets []*models.Market
	q = q.Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := q.Find(&markets).Error; err != nil {
		return nil, 0, err
	}
	return markets, total, nil
}

// ListActiveMarkets returns every active market
func (r *Repository) ListActiveMarkets(ctx context.Context) ([]*models.Market, error) {
	var markets []*models.Market
	err := r.db.WithContext(ctx).
		Where("status = ?", models.MarketStatusActive).
		Order("id ASC").
		Find(&markets).Error
	return markets, err
}

// ListExpiredActiveMarkets returns active markets whose event time has passed
func (r *Repository) ListExpiredActiveMarkets(ctx context.Context, now time.Time) ([]*models.Market, error) {
	var markets []*models.Market
	err := r.db.WithContext(ctx).
		Where("status = ? AND event_time IS NOT NULL AND event_time < ?", models.MarketStatusActive, now).
		Order("event_time ASC").
		Find(&markets).Error
	return markets, err
}

// UpdateMarketOddsAndVolume writes new odds and volume if the market is still
// active at the expected version. Returns ErrStaleWrite otherwise.
func (r *Repository) UpdateMarketOddsAndVolume(
	ctx context.Context,
	id uint,
	expectedVersion int64,
	odds models.FloatList,
	totalVolume float64,
) error {
	result := r.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("id = ? AND status = ? AND version = ?", id, models.MarketStatusActive, expectedVersion).
		Updates(map[string]interface{}{
			"odds":         odds,
			"total_volume": totalVolume,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleWrite
	}
	return nil
}

// ResolveMarket moves a market to resolved if it is still active. The
// returned bool is false when another caller resolved it first.
func (r *Repository) ResolveMarket(
	ctx context.Context,
	id uint,
	outcome int,
	method string,
	resolvedAt time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("id = ? AND status = ?", id, models.MarketStatusActive).
		Updates(map[string]interface{}{
			"status":            models.MarketStatusResolved,
			"resolved_outcome":  outcome,
			"resolution_method": method,
			"resolved_at":       resolvedAt,
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteMarket removes a market together with its trades, votes and events
func (r *Repository) DeleteMarket(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("market_id = ?", id).Delete(&models.Trade{}).Error; err != nil {
		return err
	}
	if err := db.Where("market_id = ?", id).Delete(&models.OracleVote{}).Error; err != nil {
		return err
	}
	if err := db.Where("market_id = ?", id).Delete(&models.MarketEvent{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.Market{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetMarketsByIDs returns the markets with the given IDs keyed by ID
func (r *Repository) GetMarketsByIDs(ctx context.Context, ids []uint) (map[uint]*models.Market, error) {
	out := make(map[uint]*models.Market, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var markets []*models.Market
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&markets).Error; err != nil {
		return nil, err
	}
	for _, m := range markets {
		out[m.ID] = m
	}
	return out, nil
}
