package models

import "time"

// OracleNode is a registered data source that votes on market outcomes.
type OracleNode struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChainRef   string    `gorm:"size:100" json:"chain_ref"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	DataSource string    `gorm:"size:255;not null" json:"data_source"`
	Accuracy   float64   `gorm:"not null" json:"accuracy"`
	TotalVotes int       `gorm:"not null;default:0" json:"total_votes"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for OracleNode model
func (OracleNode) TableName() string {
	return "oracle_nodes"
}

// OracleVote is one oracle's claim about a market's outcome. An oracle votes
// at most once per market.
type OracleVote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MarketID   uint      `gorm:"not null;uniqueIndex:idx_oracle_votes_market_oracle" json:"market_id"`
	OracleID   uint      `gorm:"not null;uniqueIndex:idx_oracle_votes_market_oracle" json:"oracle_id"`
	Vote       int       `gorm:"not null" json:"vote"`
	Confidence float64   `gorm:"not null" json:"confidence"`
	DataHash   string    `gorm:"size:255" json:"data_hash,omitempty"`
	TxHash     string    `gorm:"size:100" json:"tx_hash"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for OracleVote model
func (OracleVote) TableName() string {
	return "oracle_votes"
}

// OracleVoteView is a vote joined with the voting oracle's name.
type OracleVoteView struct {
	OracleVote
	OracleName string `json:"oracle_name"`
}
