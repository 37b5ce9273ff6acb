package jobs

import (
	"context"
	"errors"
	"time"

	"oracle-market/internal/logging"
	"oracle-market/internal/services"

	"go.uber.org/zap"
)

// BotRunner executes every active bot on a fixed schedule
type BotRunner struct {
	bots   *services.BotService
	logger *zap.Logger
}

// NewBotRunner creates a new bot runner
func NewBotRunner(bots *services.BotService) *BotRunner {
	return &BotRunner{
		bots:   bots,
		logger: logging.Named("bot-runner"),
	}
}

// Start runs all active bots immediately and then every interval until ctx
// is done.
func (j *BotRunner) Start(ctx context.Context, interval time.Duration) {
	j.logger.Info("[BotRunner] Starting bot runner", zap.Duration("interval", interval))

	j.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-ctx.Done():
			j.logger.Info("[BotRunner] Stopping bot runner")
			return
		}
	}
}

// RunOnce executes each active bot once and returns the number of trades
// placed. A failing bot does not stop the others.
func (j *BotRunner) RunOnce(ctx context.Context) int {
	bots, err := j.bots.ListActiveBots(ctx)
	if err != nil {
		j.logger.Error("[BotRunner] failed to list bots", zap.Error(err))
		return 0
	}

	trades := 0
	for _, bot := range bots {
		if ctx.Err() != nil {
			return trades
		}
		exec, err := j.bots.ExecuteBot(ctx, bot.ID)
		if err != nil {
			if errors.Is(err, services.ErrBotInactive) || errors.Is(err, services.ErrBotNotFound) {
				continue
			}
			j.logger.Warn("[BotRunner] bot execution failed", zap.Uint("bot_id", bot.ID), zap.Error(err))
			continue
		}
		trades += len(exec.Trades)
	}
	return trades
}
