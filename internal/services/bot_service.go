package services

import (
	"context"
	"errors"
	"fmt"

	"oracle-market/internal/events"
	"oracle-market/internal/logging"
	"oracle-market/internal/models"
	"oracle-market/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// botTradeHistory is how many trades GetBot returns
const botTradeHistory = 100

// BotTraderAddress is the trader address a bot's trades are recorded under
func BotTraderAddress(botID uint) string {
	return fmt.Sprintf("bot_%d", botID)
}

// BotService manages trading bots and runs their strategies
type BotService struct {
	repo      *repository.Repository
	markets   *MarketService
	publisher events.Publisher
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewBotService creates a new bot service
func NewBotService(repo *repository.Repository, markets *MarketService, publisher events.Publisher) *BotService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &BotService{
		repo:      repo,
		markets:   markets,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logging.Named("bot-service"),
	}
}

// CreateBotRequest describes a new bot
type CreateBotRequest struct {
	Name         string                 `json:"name" validate:"required,max=255"`
	OwnerAddress string                 `json:"owner_address" validate:"required,max=255"`
	Strategy     models.BotStrategy     `json:"strategy" validate:"required"`
	Config       map[string]interface{} `json:"config"`
	ChainRef     string                 `json:"chain_ref" validate:"max=100"`
}

// BotDetail is a bot with its most recent trades
type BotDetail struct {
	*models.TradingBot
	Trades []*models.Trade `json:"trades"`
}

// BotExecution summarizes one strategy run
type BotExecution struct {
	BotID      uint            `json:"bot_id"`
	Decisions  []TradeDecision `json:"decisions"`
	Trades     []*TradeResult  `json:"trades"`
	Skipped    int             `json:"skipped"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
}

// CreateBot registers an active bot
func (s *BotService) CreateBot(ctx context.Context, req *CreateBotRequest) (*models.TradingBot, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !IsKnownStrategy(req.Strategy) {
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, req.Strategy)
	}

	bot := &models.TradingBot{
		ChainRef:     req.ChainRef,
		Name:         req.Name,
		OwnerAddress: req.OwnerAddress,
		Strategy:     req.Strategy,
		Config:       models.JSONMap(req.Config),
		ProfitLoss:   decimal.Zero,
		IsActive:     true,
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateBot(ctx, bot); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, nil, models.EventBotCreated, models.JSONMap{
			"bot_id":   bot.ID,
			"name":     bot.Name,
			"strategy": string(bot.Strategy),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	s.publisher.Publish(ctx, models.EventBotCreated, bot)
	return bot, nil
}

// ListBots returns every bot
func (s *BotService) ListBots(ctx context.Context) ([]*models.TradingBot, error) {
	bots, err := s.repo.ListBots(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list bots: %w", err)
	}
	return bots, nil
}

// ListActiveBots returns the bots that are switched on
func (s *BotService) ListActiveBots(ctx context.Context) ([]*models.TradingBot, error) {
	bots, err := s.repo.ListBots(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bots: %w", err)
	}
	return bots, nil
}

// GetBot returns a bot with its recent trades
func (s *BotService) GetBot(ctx context.Context, id uint) (*BotDetail, error) {
	bot, err := s.getBot(ctx, id)
	if err != nil {
		return nil, err
	}
	trades, err := s.repo.ListTradesByTrader(ctx, BotTraderAddress(id), botTradeHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot trades: %w", err)
	}
	return &BotDetail{TradingBot: bot, Trades: trades}, nil
}

// ToggleBot switches a bot on or off and returns the updated bot
func (s *BotService) ToggleBot(ctx context.Context, id uint) (*models.TradingBot, error) {
	bot, err := s.getBot(ctx, id)
	if err != nil {
		return nil, err
	}
	bot.IsActive = !bot.IsActive

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.SetBotActive(ctx, id, bot.IsActive); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, nil, models.EventBotToggled, models.JSONMap{
			"bot_id":    id,
			"is_active": bot.IsActive,
		})
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBotNotFound
		}
		return nil, fmt.Errorf("failed to toggle bot: %w", err)
	}

	s.publisher.Publish(ctx, models.EventBotToggled, bot)
	return bot, nil
}

// ExecuteBot runs the bot's strategy against the active markets, places
// every decision through the market service and refreshes the bot's P&L.
// Decisions whose market closed in the meantime are skipped.
func (s *BotService) ExecuteBot(ctx context.Context, id uint) (*BotExecution, error) {
	bot, err := s.getBot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !bot.IsActive {
		return nil, ErrBotInactive
	}

	markets, err := s.markets.ListActiveMarkets(ctx)
	if err != nil {
		return nil, err
	}

	exec := &BotExecution{
		BotID:     bot.ID,
		Decisions: EvaluateStrategy(bot, markets),
		Trades:    []*TradeResult{},
	}
	trader := BotTraderAddress(bot.ID)

	for _, d := range exec.Decisions {
		result, err := s.markets.ExecuteTrade(ctx, &TradeRequest{
			MarketID:      d.MarketID,
			OptionIndex:   d.OptionIndex,
			Amount:        d.Amount,
			IsBuy:         d.IsBuy,
			TraderAddress: trader,
			BotID:         bot.ID,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, ErrMarketNotActive) || errors.Is(err, ErrMarketNotFound) {
				s.logger.Debug("[Bots] market closed before trade, skipping",
					zap.Uint("bot_id", bot.ID),
					zap.Uint("market_id", d.MarketID),
				)
			} else {
				s.logger.Warn("[Bots] trade failed",
					zap.Uint("bot_id", bot.ID),
					zap.Uint("market_id", d.MarketID),
					zap.Error(err),
				)
			}
			exec.Skipped++
			continue
		}

		exec.Trades = append(exec.Trades, result)
	}

	pnl, err := s.RefreshProfitLoss(ctx, bot.ID)
	if err != nil {
		return nil, err
	}
	exec.ProfitLoss = pnl

	s.logger.Info("[Bots] bot executed",
		zap.Uint("bot_id", bot.ID),
		zap.String("strategy", string(bot.Strategy)),
		zap.Int("trades", len(exec.Trades)),
		zap.Int("skipped", exec.Skipped),
		zap.String("profit_loss", pnl.String()),
	)
	s.publisher.Publish(ctx, models.EventBotExecuted, map[string]interface{}{
		"bot_id":      bot.ID,
		"trades":      len(exec.Trades),
		"profit_loss": pnl,
	})
	return exec, nil
}

// RefreshProfitLoss recomputes and stores a bot's mark-to-market P&L
func (s *BotService) RefreshProfitLoss(ctx context.Context, botID uint) (decimal.Decimal, error) {
	trades, err := s.repo.ListTradesByTrader(ctx, BotTraderAddress(botID), 0)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load bot trades: %w", err)
	}

	ids := make([]uint, 0, len(trades))
	seen := make(map[uint]bool)
	for _, t := range trades {
		if !seen[t.MarketID] {
			seen[t.MarketID] = true
			ids = append(ids, t.MarketID)
		}
	}
	markets, err := s.repo.GetMarketsByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load bot markets: %w", err)
	}

	pnl := PortfolioPnL(trades, markets)
	if err := s.repo.SetBotProfitLoss(ctx, botID, pnl); err != nil {
		return decimal.Zero, fmt.Errorf("failed to store bot profit/loss: %w", err)
	}
	return pnl, nil
}

func (s *BotService) getBot(ctx context.Context, id uint) (*models.TradingBot, error) {
	bot, err := s.repo.GetBot(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBotNotFound
		}
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}
	return bot, nil
}
