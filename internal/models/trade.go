package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a single buy or sell against a market option. Price is the
// option's odds at execution time. Payout is set only for winning buys
// once the market resolves.
type Trade struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	MarketID      uint             `gorm:"not null;index" json:"market_id"`
	TraderAddress string           `gorm:"size:255;not null;index" json:"trader_address"`
	OptionIndex   int              `gorm:"not null" json:"option_index"`
	Amount        float64          `gorm:"not null" json:"amount"`
	Price         float64          `gorm:"not null" json:"price"`
	IsBuy         bool             `gorm:"not null" json:"is_buy"`
	Payout        *decimal.Decimal `gorm:"type:decimal(20,8)" json:"payout,omitempty"`
	TxHash        string           `gorm:"size:100" json:"tx_hash"`
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}

// Shares returns the number of outcome shares bought or sold (amount / price).
func (t *Trade) Shares() decimal.Decimal {
	price := decimal.NewFromFloat(t.Price)
	if price.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(t.Amount).Div(price)
}
