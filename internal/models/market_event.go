package models

import "time"

// Audit event types. The same names are used for the real-time event stream.
const (
	EventMarketCreated  = "market_created"
	EventMarketDeleted  = "market_deleted"
	EventTrade          = "trade"
	EventMarketResolved = "market_resolved"
	EventOracleCreated  = "oracle_created"
	EventOracleVote     = "oracle_vote"
	EventBotCreated     = "bot_created"
	EventBotExecuted    = "bot_executed"
	EventBotToggled     = "bot_toggled"

	EventAIMarketCreated = "ai_market_created"
)

// MarketEvent is an append-only audit record. MarketID is nil for events
// that are not tied to a market (bot and oracle registration).
type MarketEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MarketID  *uint     `gorm:"index" json:"market_id,omitempty"`
	EventType string    `gorm:"size:50;not null;index" json:"event_type"`
	Data      JSONMap   `json:"data"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for MarketEvent model
func (MarketEvent) TableName() string {
	return "market_events"
}
