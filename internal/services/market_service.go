package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"oracle-market/internal/blockchain"
	"oracle-market/internal/events"
	"oracle-market/internal/logging"
	"oracle-market/internal/models"
	"oracle-market/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxTradeAttempts bounds retries after an optimistic version conflict
const maxTradeAttempts = 3

// MarketService owns the market lifecycle: creation, trading and resolution.
// Every mutation of a market runs in one transaction while holding the
// market's in-process lock; the version column catches writers in other
// processes.
type MarketService struct {
	repo             *repository.Repository
	ledger           blockchain.Ledger
	publisher        events.Publisher
	validate         *validator.Validate
	locks            *marketLocks
	defaultLiquidity float64
	logger           *zap.Logger
	now              func() time.Time
}

// NewMarketService creates a new market service
func NewMarketService(repo *repository.Repository, ledger blockchain.Ledger, publisher events.Publisher) *MarketService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &MarketService{
		repo:             repo,
		ledger:           ledger,
		publisher:        publisher,
		validate:         validator.New(),
		locks:            newMarketLocks(),
		defaultLiquidity: models.DefaultLiquidity,
		logger:           logging.Named("market-service"),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// SetDefaultLiquidity changes the liquidity used when a request omits it
func (s *MarketService) SetDefaultLiquidity(liquidity float64) {
	if liquidity > 0 {
		s.defaultLiquidity = liquidity
	}
}

// ============================================================================
// REQUESTS / RESULTS
// ============================================================================

// CreateMarketRequest describes a new market
type CreateMarketRequest struct {
	Title       string     `json:"title" validate:"required,max=500"`
	Description string     `json:"description"`
	Category    string     `json:"category" validate:"required,max=50"`
	Options     []string   `json:"options" validate:"min=2,dive,required"`
	Liquidity   float64    `json:"liquidity" validate:"gte=0"`
	EventTime   *time.Time `json:"event_time"`
	CreatedBy   string     `json:"created_by" validate:"max=100"`
}

// CreateMarketResult is the created market with its ledger receipt
type CreateMarketResult struct {
	Market          *models.Market `json:"market"`
	TxHash          string         `json:"tx_hash"`
	LedgerLatencyMs float64        `json:"ledger_latency_ms"`
}

// TradeRequest is a buy or sell on one market option
type TradeRequest struct {
	MarketID      uint    `json:"market_id" validate:"required"`
	OptionIndex   int     `json:"option_index" validate:"gte=0"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	IsBuy         bool    `json:"is_buy"`
	TraderAddress string  `json:"trader_address" validate:"required,max=255"`
	// BotID, when set, counts the trade against that bot in the same transaction
	BotID uint `json:"-"`
}

// TradeResult is the executed trade and the market odds after it
type TradeResult struct {
	Trade           *models.Trade `json:"trade"`
	NewOdds         []float64     `json:"new_odds"`
	NewVolume       float64       `json:"new_volume"`
	TxHash          string        `json:"tx_hash"`
	LedgerLatencyMs float64       `json:"ledger_latency_ms"`
}

// ResolutionResult describes a completed resolution
type ResolutionResult struct {
	Market  *models.Market `json:"market"`
	Outcome int            `json:"outcome"`
	Method  string         `json:"method"`
	Payouts int            `json:"payouts"`
}

// MarketDetail is a market with its trades and oracle votes
type MarketDetail struct {
	*models.Market
	Trades []*models.Trade          `json:"trades"`
	Votes  []*models.OracleVoteView `json:"votes"`
}

// ============================================================================
// QUERIES
// ============================================================================

// GetMarket retrieves a market by ID
func (s *MarketService) GetMarket(ctx context.Context, id uint) (*models.Market, error) {
	market, err := s.repo.GetMarket(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMarketNotFound
		}
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return market, nil
}

// ListMarkets returns markets newest first with the total matching count
func (s *MarketService) ListMarkets(ctx context.Context, filter repository.MarketFilter) ([]*models.Market, int64, error) {
	if filter.Status != "" && filter.Status != models.MarketStatusActive && filter.Status != models.MarketStatusResolved {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	markets, total, err := s.repo.ListMarkets(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list markets: %w", err)
	}
	return markets, total, nil
}

// ListActiveMarkets returns every active market
func (s *MarketService) ListActiveMarkets(ctx context.Context) ([]*models.Market, error) {
	markets, err := s.repo.ListActiveMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active markets: %w", err)
	}
	return markets, nil
}

// ListExpiredMarkets returns active markets whose event time is before now
func (s *MarketService) ListExpiredMarkets(ctx context.Context, now time.Time) ([]*models.Market, error) {
	markets, err := s.repo.ListExpiredActiveMarkets(ctx, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired markets: %w", err)
	}
	return markets, nil
}

// GetMarketDetail returns a market with its trades (newest first) and votes
func (s *MarketService) GetMarketDetail(ctx context.Context, id uint) (*MarketDetail, error) {
	market, err := s.GetMarket(ctx, id)
	if err != nil {
		return nil, err
	}
	trades, err := s.repo.ListTradesByMarket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}
	for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
		trades[i], trades[j] = trades[j], trades[i]
	}
	votes, err := s.repo.ListVoteViewsByMarket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}
	return &MarketDetail{Market: market, Trades: trades, Votes: votes}, nil
}

// ============================================================================
// CREATE / DELETE
// ============================================================================

// CreateMarket opens a market with uniform odds after recording it on the ledger
func (s *MarketService) CreateMarket(ctx context.Context, req *CreateMarketRequest) (*CreateMarketResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if math.IsInf(req.Liquidity, 0) || math.IsNaN(req.Liquidity) {
		return nil, fmt.Errorf("%w: liquidity must be finite", ErrInvalidInput)
	}

	liquidity := req.Liquidity
	if liquidity == 0 {
		liquidity = s.defaultLiquidity
	}
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = "operator"
	}
	var eventTime *time.Time
	if req.EventTime != nil {
		t := req.EventTime.UTC()
		eventTime = &t
	}

	chainRef, err := s.ledger.CreateChain(ctx, "prediction-market")
	if err != nil {
		return nil, fmt.Errorf("failed to create market chain: %w", err)
	}
	receipt, err := s.ledger.Invoke(ctx, chainRef, blockchain.OpCreateMarket, map[string]interface{}{
		"title":       req.Title,
		"description": req.Description,
		"options":     req.Options,
		"event_time":  eventTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record market on ledger: %w", err)
	}

	market := &models.Market{
		ChainRef:    chainRef,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Options:     models.StringList(req.Options),
		Odds:        models.FloatList(UniformOdds(len(req.Options))),
		Liquidity:   liquidity,
		Status:      models.MarketStatusActive,
		EventTime:   eventTime,
		CreatedBy:   createdBy,
		CreatedAt:   s.now(),
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateMarket(ctx, market); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, &market.ID, models.EventMarketCreated, models.JSONMap{
			"title":     market.Title,
			"options":   req.Options,
			"chain_ref": chainRef,
			"tx_hash":   receipt.TxHash,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create market: %w", err)
	}

	s.logger.Info("[Markets] market created",
		zap.Uint("market_id", market.ID),
		zap.String("title", market.Title),
		zap.Int("options", len(market.Options)),
	)
	s.publisher.Publish(ctx, models.EventMarketCreated, map[string]interface{}{
		"market":            market,
		"tx_hash":           receipt.TxHash,
		"ledger_latency_ms": receipt.LatencyMs,
	})

	return &CreateMarketResult{Market: market, TxHash: receipt.TxHash, LedgerLatencyMs: receipt.LatencyMs}, nil
}

// DeleteMarket removes a market with its trades, votes and audit trail
func (s *MarketService) DeleteMarket(ctx context.Context, id uint) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.DeleteMarket(ctx, id)
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrMarketNotFound
		}
		return fmt.Errorf("failed to delete market: %w", err)
	}

	s.logger.Info("[Markets] market deleted", zap.Uint("market_id", id))
	s.publisher.Publish(ctx, models.EventMarketDeleted, map[string]interface{}{"market_id": id})
	return nil
}

// ============================================================================
// TRADING
// ============================================================================

// ExecuteTrade records the trade on the ledger, then atomically stores it,
// moves the odds and appends the audit event. Nothing is stored when the
// ledger fails or the market was resolved in the meantime.
func (s *MarketService) ExecuteTrade(ctx context.Context, req *TradeRequest) (*TradeResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if math.IsInf(req.Amount, 0) {
		return nil, fmt.Errorf("%w: amount must be finite", ErrInvalidInput)
	}

	market, err := s.GetMarket(ctx, req.MarketID)
	if err != nil {
		return nil, err
	}
	if !market.IsActive() {
		return nil, ErrMarketNotActive
	}
	if !market.HasOption(req.OptionIndex) {
		return nil, fmt.Errorf("%w: option index %d out of range", ErrInvalidInput, req.OptionIndex)
	}

	receipt, err := s.ledger.Invoke(ctx, market.ChainRef, blockchain.OpPlaceTrade, map[string]interface{}{
		"option_index":   req.OptionIndex,
		"amount":         req.Amount,
		"is_buy":         req.IsBuy,
		"trader_address": req.TraderAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record trade on ledger: %w", err)
	}

	var result *TradeResult
	for attempt := 1; ; attempt++ {
		result, err = s.applyTrade(ctx, req, receipt)
		if !errors.Is(err, repository.ErrStaleWrite) {
			break
		}
		if attempt == maxTradeAttempts {
			return nil, ErrConcurrentTrade
		}
		s.logger.Debug("[Markets] version conflict, retrying trade",
			zap.Uint("market_id", req.MarketID),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.EventTrade, map[string]interface{}{
		"market_id":         req.MarketID,
		"trade":             result.Trade,
		"new_odds":          result.NewOdds,
		"new_volume":        result.NewVolume,
		"ledger_latency_ms": receipt.LatencyMs,
	})
	return result, nil
}

func (s *MarketService) applyTrade(ctx context.Context, req *TradeRequest, receipt *blockchain.Receipt) (*TradeResult, error) {
	unlock := s.locks.Lock(req.MarketID)
	defer unlock()

	var result *TradeResult
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		market, err := tx.LockMarket(ctx, req.MarketID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrMarketNotFound
			}
			return err
		}
		if !market.IsActive() {
			return ErrMarketNotActive
		}

		newOdds := UpdateOdds(market.Odds, req.OptionIndex, req.Amount, req.IsBuy, market.Liquidity)
		newVolume := market.TotalVolume + req.Amount

		trade := &models.Trade{
			MarketID:      market.ID,
			TraderAddress: req.TraderAddress,
			OptionIndex:   req.OptionIndex,
			Amount:        req.Amount,
			Price:         market.Odds[req.OptionIndex],
			IsBuy:         req.IsBuy,
			TxHash:        receipt.TxHash,
			CreatedAt:     s.now(),
		}
		if err := tx.InsertTrade(ctx, trade); err != nil {
			return err
		}
		if err := tx.UpdateMarketOddsAndVolume(ctx, market.ID, market.Version, newOdds, newVolume); err != nil {
			return err
		}
		if req.BotID != 0 {
			if err := tx.IncrementBotTrades(ctx, req.BotID, 1); err != nil {
				return err
			}
		}
		if err := tx.AppendEvent(ctx, &market.ID, models.EventTrade, models.JSONMap{
			"trader_address": trade.TraderAddress,
			"option_index":   trade.OptionIndex,
			"amount":         trade.Amount,
			"is_buy":         trade.IsBuy,
			"price":          trade.Price,
			"tx_hash":        trade.TxHash,
		}); err != nil {
			return err
		}

		result = &TradeResult{
			Trade:           trade,
			NewOdds:         newOdds,
			NewVolume:       newVolume,
			TxHash:          receipt.TxHash,
			LedgerLatencyMs: receipt.LatencyMs,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMarketNotFound) || errors.Is(err, ErrMarketNotActive) || errors.Is(err, repository.ErrStaleWrite) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to execute trade: %w", err)
	}
	return result, nil
}

// ============================================================================
// RESOLUTION
// ============================================================================

// ResolveMarket settles an active market on outcome. Resolving a market that
// is already resolved returns ErrMarketResolved and changes nothing.
func (s *MarketService) ResolveMarket(ctx context.Context, marketID uint, outcome int, method string) (*ResolutionResult, error) {
	return s.resolve(ctx, marketID, method, func(m *models.Market) (int, error) {
		if !m.HasOption(outcome) {
			return 0, fmt.Errorf("%w: outcome %d out of range", ErrInvalidInput, outcome)
		}
		return outcome, nil
	})
}

// ResolveToLeader settles an active market on its highest-odds option as of
// the moment the market is locked.
func (s *MarketService) ResolveToLeader(ctx context.Context, marketID uint, method string) (*ResolutionResult, error) {
	return s.resolve(ctx, marketID, method, func(m *models.Market) (int, error) {
		return LeadingOption(m.Odds), nil
	})
}

func (s *MarketService) resolve(
	ctx context.Context,
	marketID uint,
	method string,
	pick func(*models.Market) (int, error),
) (*ResolutionResult, error) {
	switch method {
	case models.ResolutionManual, models.ResolutionConsensus, models.ResolutionSweep:
	default:
		return nil, fmt.Errorf("%w: unknown resolution method %q", ErrInvalidInput, method)
	}

	unlock := s.locks.Lock(marketID)
	defer unlock()

	var result *ResolutionResult
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		market, err := tx.LockMarket(ctx, marketID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrMarketNotFound
			}
			return err
		}
		if !market.IsActive() {
			return ErrMarketResolved
		}

		outcome, err := pick(market)
		if err != nil {
			return err
		}

		resolvedAt := s.now()
		won, err := tx.ResolveMarket(ctx, marketID, outcome, method, resolvedAt)
		if err != nil {
			return err
		}
		if !won {
			return ErrMarketResolved
		}

		payouts, err := s.backfillPayouts(ctx, tx, marketID, outcome)
		if err != nil {
			return err
		}

		if err := tx.AppendEvent(ctx, &marketID, models.EventMarketResolved, models.JSONMap{
			"outcome": outcome,
			"method":  method,
			"payouts": payouts,
		}); err != nil {
			return err
		}

		market.Status = models.MarketStatusResolved
		market.ResolvedOutcome = &outcome
		market.ResolutionMethod = method
		market.ResolvedAt = &resolvedAt
		market.Version++
		result = &ResolutionResult{Market: market, Outcome: outcome, Method: method, Payouts: payouts}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMarketNotFound) || errors.Is(err, ErrMarketResolved) || errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve market: %w", err)
	}

	s.logger.Info("[Markets] market resolved",
		zap.Uint("market_id", marketID),
		zap.Int("outcome", result.Outcome),
		zap.String("method", method),
		zap.Int("payouts", result.Payouts),
	)
	s.publisher.Publish(ctx, models.EventMarketResolved, map[string]interface{}{
		"market_id": marketID,
		"outcome":   result.Outcome,
		"method":    method,
	})
	return result, nil
}

// backfillPayouts sets payout = amount / price on every winning buy
func (s *MarketService) backfillPayouts(ctx context.Context, tx *repository.Repository, marketID uint, outcome int) (int, error) {
	trades, err := tx.ListTradesByMarket(ctx, marketID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, trade := range trades {
		payout := Payout(trade, outcome)
		if payout.IsZero() {
			continue
		}
		if err := tx.SetTradePayout(ctx, trade.ID, payout.Round(8)); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// Payout returns what a trade pays on a market resolved to outcome
func Payout(trade *models.Trade, outcome int) decimal.Decimal {
	if !trade.IsBuy || trade.OptionIndex != outcome {
		return decimal.Zero
	}
	return trade.Shares()
}
