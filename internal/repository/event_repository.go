package repository

import (
	"context"
	"time"

	"oracle-market/internal/models"
)

// AppendEvent writes an audit record
func (r *Repository) AppendEvent(ctx context.Context, marketID *uint, eventType string, data models.JSONMap) error {
	event := &models.MarketEvent{
		MarketID:  marketID,
		EventType: eventType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ListRecentEvents returns the newest audit records first
func (r *Repository) ListRecentEvents(ctx context.Context, limit int) ([]*models.MarketEvent, error) {
	var events []*models.MarketEvent
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// ListEventsByMarket returns a market's audit trail in order
func (r *Repository) ListEventsByMarket(ctx context.Context, marketID uint) ([]*models.MarketEvent, error) {
	var events []*models.MarketEvent
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("id ASC").
		Find(&events).Error
	return events, err
}
