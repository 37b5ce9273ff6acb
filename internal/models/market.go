package models

import (
	"time"
)

// Market status constants
type MarketStatus string

const (
	MarketStatusActive   MarketStatus = "active"
	MarketStatusResolved MarketStatus = "resolved"
)

// Resolution methods recorded on resolved markets and their audit events
const (
	ResolutionManual    = "manual"
	ResolutionConsensus = "consensus"
	ResolutionSweep     = "sweep"
)

// DefaultLiquidity is used when a market is created without an explicit liquidity.
const DefaultLiquidity = 1000.0

// Market represents a prediction market with a fixed option list and
// AMM-style odds that move with every trade.
type Market struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	ChainRef         string       `gorm:"size:100" json:"chain_ref"`
	Title            string       `gorm:"size:500;not null" json:"title"`
	Description      string       `gorm:"type:text" json:"description"`
	Category         string       `gorm:"size:50;not null;index" json:"category"`
	Options          StringList   `gorm:"not null" json:"options"`
	Odds             FloatList    `gorm:"not null" json:"odds"`
	TotalVolume      float64      `gorm:"not null;default:0" json:"total_volume"`
	Liquidity        float64      `gorm:"not null" json:"liquidity"`
	Status           MarketStatus `gorm:"size:20;not null;index" json:"status"`
	ResolvedOutcome  *int         `json:"resolved_outcome,omitempty"`
	ResolutionMethod string       `gorm:"size:20" json:"resolution_method,omitempty"`
	EventTime        *time.Time   `gorm:"index" json:"event_time,omitempty"`
	CreatedBy        string       `gorm:"size:100;not null" json:"created_by"`
	Version          int64        `gorm:"not null;default:0" json:"version"`
	CreatedAt        time.Time    `json:"created_at"`
	ResolvedAt       *time.Time   `json:"resolved_at,omitempty"`
}

// TableName specifies the table name for Market model
func (Market) TableName() string {
	return "markets"
}

// IsActive reports whether the market still accepts trades and votes.
func (m *Market) IsActive() bool {
	return m.Status == MarketStatusActive
}

// HasOption reports whether idx addresses one of the market's options.
func (m *Market) HasOption(idx int) bool {
	return idx >= 0 && idx < len(m.Options)
}
