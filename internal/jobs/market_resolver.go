package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"oracle-market/internal/logging"
	"oracle-market/internal/models"
	"oracle-market/internal/services"

	"go.uber.org/zap"
)

// MarketResolver settles markets whose event time has passed on their
// leading option.
type MarketResolver struct {
	markets  *services.MarketService
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
	now      func() time.Time
}

// NewMarketResolver creates a new market resolution job
func NewMarketResolver(markets *services.MarketService, interval time.Duration) *MarketResolver {
	return &MarketResolver{
		markets:  markets,
		interval: interval,
		stopChan: make(chan struct{}),
		logger:   logging.Named("market-resolver"),
		now:      time.Now,
	}
}

// Start runs the sweep once, then every interval until ctx is done or Stop
// is called
func (mr *MarketResolver) Start(ctx context.Context) {
	mr.logger.Info("[MarketResolver] Starting market resolution job", zap.Duration("interval", mr.interval))

	mr.sweep(ctx)

	ticker := time.NewTicker(mr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mr.sweep(ctx)
		case <-ctx.Done():
			mr.logger.Info("[MarketResolver] Stopping market resolution job")
			return
		case <-mr.stopChan:
			mr.logger.Info("[MarketResolver] Stopping market resolution job")
			return
		}
	}
}

func (mr *MarketResolver) sweep(ctx context.Context) {
	if _, err := mr.RunOnce(ctx); err != nil && ctx.Err() == nil {
		mr.logger.Error("[MarketResolver] sweep failed", zap.Error(err))
	}
}

// Stop stops the resolution loop
func (mr *MarketResolver) Stop() {
	mr.stopOnce.Do(func() { close(mr.stopChan) })
}

// RunOnce resolves every expired active market and returns how many this
// sweep settled. A market settled concurrently by someone else is skipped.
func (mr *MarketResolver) RunOnce(ctx context.Context) (int, error) {
	expired, err := mr.markets.ListExpiredMarkets(ctx, mr.now())
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	mr.logger.Debug("[MarketResolver] expired markets found", zap.Int("count", len(expired)))

	resolved := 0
	for _, m := range expired {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}

		res, err := mr.markets.ResolveToLeader(ctx, m.ID, models.ResolutionSweep)
		switch {
		case err == nil:
			resolved++
			mr.logger.Info("[MarketResolver] market resolved",
				zap.Uint("market_id", m.ID),
				zap.Int("outcome", res.Outcome),
			)
		case errors.Is(err, services.ErrMarketResolved), errors.Is(err, services.ErrMarketNotFound):
			continue
		default:
			mr.logger.Error("[MarketResolver] error resolving market",
				zap.Uint("market_id", m.ID),
				zap.Error(err),
			)
		}
	}

	if resolved > 0 {
		mr.logger.Info("[MarketResolver] sweep complete", zap.Int("resolved", resolved))
	}
	return resolved, nil
}
