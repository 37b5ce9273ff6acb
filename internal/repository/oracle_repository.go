package repository

import (
	"context"

	"oracle-market/internal/models"

	"gorm.io/gorm"
)

// CreateOracle registers an oracle node
func (r *Repository) CreateOracle(ctx context.Context, oracle *models.OracleNode) error {
	return r.db.WithContext(ctx).Create(oracle).Error
}

// GetOracle retrieves an oracle node by ID
func (r *Repository) GetOracle(ctx context.Context, id uint) (*models.OracleNode, error) {
	var oracle models.OracleNode
	if err := r.db.WithContext(ctx).First(&oracle, id).Error; err != nil {
		return nil, err
	}
	return &oracle, nil
}

// ListOracles returns all oracle nodes
func (r *Repository) ListOracles(ctx context.Context) ([]*models.OracleNode, error) {
	var oracles []*models.OracleNode
	err := r.db.WithContext(ctx).Order("id ASC").Find(&oracles).Error
	return oracles, err
}

// HasVoted reports whether the oracle already voted on the market
func (r *Repository) HasVoted(ctx context.Context, oracleID, marketID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OracleVote{}).
		Where("oracle_id = ? AND market_id = ?", oracleID, marketID).
		Count(&count).Error
	return count > 0, err
}

// InsertVote records a vote. A second vote by the same oracle on the same
// market fails with gorm.ErrDuplicatedKey.
func (r *Repository) InsertVote(ctx context.Context, vote *models.OracleVote) error {
	err := r.db.WithContext(ctx).Create(vote).Error
	if err != nil && isUniqueViolation(err) {
		return gorm.ErrDuplicatedKey
	}
	return err
}

// IncrementOracleVotes bumps an oracle's vote counter
func (r *Repository) IncrementOracleVotes(ctx context.Context, oracleID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.OracleNode{}).
		Where("id = ?", oracleID).
		UpdateColumn("total_votes", gorm.Expr("total_votes + 1")).Error
}

// ListVotesByMarket returns a market's votes in submission order
func (r *Repository) ListVotesByMarket(ctx context.Context, marketID uint) ([]*models.OracleVote, error) {
	var votes []*models.OracleVote
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("id ASC").
		Find(&votes).Error
	return votes, err
}

// ListVoteViewsByMarket returns a market's votes joined with oracle names
func (r *Repository) ListVoteViewsByMarket(ctx context.Context, marketID uint) ([]*models.OracleVoteView, error) {
	var views []*models.OracleVoteView
	err := r.db.WithContext(ctx).
		Table("oracle_votes").
		Select("oracle_votes.*, oracle_nodes.name AS oracle_name").
		Joins("LEFT JOIN oracle_nodes ON oracle_nodes.id = oracle_votes.oracle_id").
		Where("oracle_votes.market_id = ?", marketID).
		Order("oracle_votes.id ASC").
		Scan(&views).Error
	return views, err
}
