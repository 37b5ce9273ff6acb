package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"oracle-market/internal/models"
	"oracle-market/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	topMarketsLimit    = 10
	recentEventsLimit  = 50
	leaderboardLimit   = 50
	defaultHistoryDays = 30
	maxHistoryDays     = 365
	historyDateLayout  = "2006-01-02"
)

// AnalyticsService computes read-only aggregates for dashboards
type AnalyticsService struct {
	repo *repository.Repository
	now  func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo *repository.Repository) *AnalyticsService {
	return &AnalyticsService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Overview is the platform-wide headline numbers
type Overview struct {
	Markets struct {
		Total       int64   `json:"total"`
		Active      int64   `json:"active"`
		Resolved    int64   `json:"resolved"`
		TotalVolume float64 `json:"total_volume"`
	} `json:"markets"`
	Trades struct {
		Total int64 `json:"total"`
	} `json:"trades"`
	Oracles struct {
		Total      int64 `json:"total"`
		Active     int64 `json:"active"`
		TotalVotes int64 `json:"total_votes"`
	} `json:"oracles"`
	Bots struct {
		Total  int64 `json:"total"`
		Active int64 `json:"active"`
	} `json:"bots"`
}

// VolumePoint is one day of trading activity
type VolumePoint struct {
	Date   string  `json:"date"`
	Volume float64 `json:"volume"`
	Trades int     `json:"trades"`
}

// OraclePerformance reports how often an oracle agreed with final outcomes
type OraclePerformance struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	DataSource     string  `json:"data_source"`
	IsActive       bool    `json:"is_active"`
	TotalVotes     int     `json:"total_votes"`
	SettledVotes   int     `json:"settled_votes"`
	CorrectVotes   int     `json:"correct_votes"`
	Accuracy       float64 `json:"accuracy"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// BotRanking is a leaderboard row
type BotRanking struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Strategy    models.BotStrategy `json:"strategy"`
	TotalTrades int                `json:"total_trades"`
	ProfitLoss  decimal.Decimal    `json:"profit_loss"`
	IsActive    bool               `json:"is_active"`
}

// Overview returns the headline counters
func (s *AnalyticsService) Overview(ctx context.Context) (*Overview, error) {
	totals, err := s.repo.CountTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count totals: %w", err)
	}

	o := &Overview{}
	o.Markets.Total = totals.TotalMarkets
	o.Markets.Active = totals.ActiveMarkets
	o.Markets.Resolved = totals.ResolvedMarkets
	o.Markets.TotalVolume = totals.TotalVolume
	o.Trades.Total = totals.TotalTrades
	o.Oracles.Total = totals.TotalOracles
	o.Oracles.Active = totals.ActiveOracles
	o.Oracles.TotalVotes = totals.TotalVotes
	o.Bots.Total = totals.TotalBots
	o.Bots.Active = totals.ActiveBots
	return o, nil
}

// VolumeHistory returns per-day volume for the last days days (UTC), oldest
// first. Days without trades are omitted.
func (s *AnalyticsService) VolumeHistory(ctx context.Context, days int) ([]VolumePoint, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(days - 1))

	trades, err := s.repo.ListTradesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	byDay := make(map[string]*VolumePoint)
	for _, t := range trades {
		day := t.CreatedAt.UTC().Format(historyDateLayout)
		p, ok := byDay[day]
		if !ok {
			p = &VolumePoint{Date: day}
			byDay[day] = p
		}
		p.Volume += t.Amount
		p.Trades++
	}

	points := make([]VolumePoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

// TopMarkets returns the markets with the most volume
func (s *AnalyticsService) TopMarkets(ctx context.Context) ([]*models.Market, error) {
	markets, err := s.repo.TopMarketsByVolume(ctx, topMarketsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top markets: %w", err)
	}
	return markets, nil
}

// OraclePerformance scores every oracle against resolved markets, best first
func (s *AnalyticsService) OraclePerformance(ctx context.Context) ([]OraclePerformance, error) {
	oracles, err := s.repo.ListOracles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list oracles: %w", err)
	}
	votes, err := s.repo.ListAllVotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	var marketIDs []uint
	seen := make(map[uint]bool)
	for _, v := range votes {
		if !seen[v.MarketID] {
			seen[v.MarketID] = true
			marketIDs = append(marketIDs, v.MarketID)
		}
	}
	markets, err := s.repo.GetMarketsByIDs(ctx, marketIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load markets: %w", err)
	}

	perf := make(map[uint]*OraclePerformance, len(oracles))
	out := make([]OraclePerformance, 0, len(oracles))
	for _, o := range oracles {
		perf[o.ID] = &OraclePerformance{ID: o.ID, Name: o.Name, DataSource: o.DataSource, IsActive: o.IsActive}
	}

	confidence := make(map[uint]float64)
	for _, v := range votes {
		p, ok := perf[v.OracleID]
		if !ok {
			continue
		}
		p.TotalVotes++
		confidence[v.OracleID] += v.Confidence

		m, ok := markets[v.MarketID]
		if !ok || m.Status != models.MarketStatusResolved || m.ResolvedOutcome == nil {
			continue
		}
		p.SettledVotes++
		if *m.ResolvedOutcome == v.Vote {
			p.CorrectVotes++
		}
	}

	for _, o := range oracles {
		p := perf[o.ID]
		p.Accuracy = 100
		if p.SettledVotes > 0 {
			p.Accuracy = float64(p.CorrectVotes) / float64(p.SettledVotes) * 100
		}
		if p.TotalVotes > 0 {
			p.MeanConfidence = confidence[o.ID] / float64(p.TotalVotes)
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Accuracy != out[j].Accuracy {
			return out[i].Accuracy > out[j].Accuracy
		}
		return out[i].TotalVotes > out[j].TotalVotes
	})
	return out, nil
}

// BotLeaderboard ranks bots by profit/loss
func (s *AnalyticsService) BotLeaderboard(ctx context.Context) ([]BotRanking, error) {
	bots, err := s.repo.ListBotsByProfit(ctx, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank bots: %w", err)
	}
	out := make([]BotRanking, 0, len(bots))
	for _, b := range bots {
		out = append(out, BotRanking{
			ID:          b.ID,
			Name:        b.Name,
			Strategy:    b.Strategy,
			TotalTrades: b.TotalTrades,
			ProfitLoss:  b.ProfitLoss,
			IsActive:    b.IsActive,
		})
	}
	return out, nil
}

// RecentEvents returns the newest audit events
func (s *AnalyticsService) RecentEvents(ctx context.Context) ([]*models.MarketEvent, error) {
	events, err := s.repo.ListRecentEvents(ctx, recentEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	return events, nil
}

// CategoryBreakdown returns market counts and volume per category
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context) ([]repository.CategoryStat, error) {
	stats, err := s.repo.CategoryBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get category breakdown: %w", err)
	}
	return stats, nil
}
