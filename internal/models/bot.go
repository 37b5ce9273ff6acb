package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bot strategies
type BotStrategy string

const (
	StrategyMomentum   BotStrategy = "momentum"
	StrategyContrarian BotStrategy = "contrarian"
	StrategyArbitrage  BotStrategy = "arbitrage"
)

// TradingBot is an automated trader that applies a fixed strategy to the
// active markets.
type TradingBot struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ChainRef     string          `gorm:"size:100" json:"chain_ref"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	OwnerAddress string          `gorm:"size:255;not null;index" json:"owner_address"`
	Strategy     BotStrategy     `gorm:"size:50;not null" json:"strategy"`
	Config       JSONMap         `json:"config"`
	TotalTrades  int             `gorm:"not null;default:0" json:"total_trades"`
	ProfitLoss   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"profit_loss"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName specifies the table name for TradingBot model
func (TradingBot) TableName() string {
	return "trading_bots"
}
