package services

import (
	"context"
	"errors"
	"fmt"

	"oracle-market/internal/blockchain"
	"oracle-market/internal/events"
	"oracle-market/internal/logging"
	"oracle-market/internal/models"
	"oracle-market/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OracleService registers oracles, records their votes and resolves markets
// once the votes reach consensus.
type OracleService struct {
	repo      *repository.Repository
	markets   *MarketService
	ledger    blockchain.Ledger
	publisher events.Publisher
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewOracleService creates a new oracle service
func NewOracleService(repo *repository.Repository, markets *MarketService, ledger blockchain.Ledger, publisher events.Publisher) *OracleService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OracleService{
		repo:      repo,
		markets:   markets,
		ledger:    ledger,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logging.Named("oracle-service"),
	}
}

// RegisterOracleRequest describes a new oracle node
type RegisterOracleRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	DataSource string `json:"data_source" validate:"required,max=255"`
	ChainRef   string `json:"chain_ref" validate:"max=100"`
}

// VoteRequest is an oracle's claim about a market's outcome. A nil
// Confidence counts as full confidence.
type VoteRequest struct {
	OracleID   uint     `json:"oracle_id" validate:"required"`
	MarketID   uint     `json:"market_id" validate:"required"`
	Vote       int      `json:"vote" validate:"gte=0"`
	Confidence *float64 `json:"confidence"`
	DataHash   string   `json:"data_hash" validate:"max=255"`
}

// VoteResult reports the stored vote and whether it settled the market
type VoteResult struct {
	Vote            *models.OracleVote `json:"vote"`
	TotalVotes      int                `json:"total_votes"`
	Consensus       *ConsensusResult   `json:"consensus,omitempty"`
	Resolved        bool               `json:"resolved"`
	TxHash          string             `json:"tx_hash"`
	LedgerLatencyMs float64            `json:"ledger_latency_ms"`
}

// RegisterOracle adds an active oracle node with full accuracy
func (s *OracleService) RegisterOracle(ctx context.Context, req *RegisterOracleRequest) (*models.OracleNode, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	oracle := &models.OracleNode{
		ChainRef:   req.ChainRef,
		Name:       req.Name,
		DataSource: req.DataSource,
		Accuracy:   100,
		IsActive:   true,
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateOracle(ctx, oracle); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, nil, models.EventOracleCreated, models.JSONMap{
			"oracle_id":   oracle.ID,
			"name":        oracle.Name,
			"data_source": oracle.DataSource,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register oracle: %w", err)
	}

	s.publisher.Publish(ctx, models.EventOracleCreated, oracle)
	return oracle, nil
}

// ListOracles returns every oracle node
func (s *OracleService) ListOracles(ctx context.Context) ([]*models.OracleNode, error) {
	oracles, err := s.repo.ListOracles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list oracles: %w", err)
	}
	return oracles, nil
}

// GetVotes returns a market's votes with oracle names
func (s *OracleService) GetVotes(ctx context.Context, marketID uint) ([]*models.OracleVoteView, error) {
	if _, err := s.markets.GetMarket(ctx, marketID); err != nil {
		return nil, err
	}
	votes, err := s.repo.ListVoteViewsByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}
	return votes, nil
}

// SubmitVote stores a vote, and once MinConsensusVotes votes exist and one
// outcome holds ConsensusThreshold of the confidence, resolves the market.
func (s *OracleService) SubmitVote(ctx context.Context, req *VoteRequest) (*VoteResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	if !(confidence > 0 && confidence <= 1) {
		return nil, fmt.Errorf("%w: confidence must be in (0, 1]", ErrInvalidInput)
	}

	oracle, err := s.repo.GetOracle(ctx, req.OracleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOracleNotFound
		}
		return nil, fmt.Errorf("failed to get oracle: %w", err)
	}
	if !oracle.IsActive {
		return nil, ErrOracleInactive
	}

	market, err := s.markets.GetMarket(ctx, req.MarketID)
	if err != nil {
		return nil, err
	}
	if !market.IsActive() {
		return nil, ErrMarketNotActive
	}
	if !market.HasOption(req.Vote) {
		return nil, fmt.Errorf("%w: vote %d out of range", ErrInvalidInput, req.Vote)
	}

	voted, err := s.repo.HasVoted(ctx, oracle.ID, market.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check votes: %w", err)
	}
	if voted {
		return nil, ErrDuplicateVote
	}

	receipt, err := s.ledger.Invoke(ctx, market.ChainRef, blockchain.OpSubmitVote, map[string]interface{}{
		"oracle_id":  oracle.ID,
		"vote":       req.Vote,
		"confidence": confidence,
		"data_hash":  req.DataHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record vote on ledger: %w", err)
	}

	vote := &models.OracleVote{
		MarketID:   market.ID,
		OracleID:   oracle.ID,
		Vote:       req.Vote,
		Confidence: confidence,
		DataHash:   req.DataHash,
		TxHash:     receipt.TxHash,
	}
	if err := s.storeVote(ctx, vote); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.EventOracleVote, map[string]interface{}{
		"market_id":   vote.MarketID,
		"oracle_id":   vote.OracleID,
		"oracle_name": oracle.Name,
		"vote":        vote.Vote,
		"confidence":  vote.Confidence,
		"tx_hash":     vote.TxHash,
	})

	result := &VoteResult{Vote: vote, TxHash: receipt.TxHash, LedgerLatencyMs: receipt.LatencyMs}
	if err := s.evaluateConsensus(ctx, market.ID, result); err != nil {
		return nil, err
	}
	return result, nil
}

// storeVote inserts the vote, bumps the oracle's counter and appends the
// audit event in one transaction under the market's lock.
func (s *OracleService) storeVote(ctx context.Context, vote *models.OracleVote) error {
	unlock := s.markets.locks.Lock(vote.MarketID)
	defer unlock()

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		market, err := tx.LockMarket(ctx, vote.MarketID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrMarketNotFound
			}
			return err
		}
		if !market.IsActive() {
			return ErrMarketNotActive
		}

		if err := tx.InsertVote(ctx, vote); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateVote
			}
			return err
		}
		if err := tx.IncrementOracleVotes(ctx, vote.OracleID); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, &vote.MarketID, models.EventOracleVote, models.JSONMap{
			"oracle_id":  vote.OracleID,
			"vote":       vote.Vote,
			"confidence": vote.Confidence,
			"data_hash":  vote.DataHash,
			"tx_hash":    vote.TxHash,
		})
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateVote) || errors.Is(err, ErrMarketNotActive) || errors.Is(err, ErrMarketNotFound) {
			return err
		}
		return fmt.Errorf("failed to store vote: %w", err)
	}
	return nil
}

func (s *OracleService) evaluateConsensus(ctx context.Context, marketID uint, result *VoteResult) error {
	votes, err := s.repo.ListVotesByMarket(ctx, marketID)
	if err != nil {
		return fmt.Errorf("failed to load votes: %w", err)
	}
	result.TotalVotes = len(votes)
	if len(votes) < MinConsensusVotes {
		return nil
	}

	weighted := make([]WeightedVote, len(votes))
	for i, v := range votes {
		weighted[i] = WeightedVote{Vote: v.Vote, Confidence: v.Confidence}
	}
	consensus := CheckConsensus(weighted)
	result.Consensus = &consensus
	if !consensus.HasConsensus {
		return nil
	}

	_, err = s.markets.ResolveMarket(ctx, marketID, consensus.Outcome, models.ResolutionConsensus)
	switch {
	case err == nil:
		result.Resolved = true
		s.logger.Info("[Oracles] consensus reached",
			zap.Uint("market_id", marketID),
			zap.Int("outcome", consensus.Outcome),
			zap.Float64("share", consensus.Share),
		)
	case errors.Is(err, ErrMarketResolved):
		s.logger.Debug("[Oracles] market already resolved", zap.Uint("market_id", marketID))
	default:
		// the vote itself is stored; the next vote re-evaluates consensus
		s.logger.Error("[Oracles] consensus resolution failed",
			zap.Uint("market_id", marketID),
			zap.Error(err),
		)
	}
	return nil
}
