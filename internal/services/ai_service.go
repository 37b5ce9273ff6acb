package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"oracle-market/internal/events"
	"oracle-market/internal/logging"
	"oracle-market/internal/models"
	"oracle-market/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AIAgentCreator is the created_by value of generated markets
const AIAgentCreator = "ai_agent"

// Completer asks a language model for a JSON object and decodes it into out
type Completer interface {
	CompleteJSON(ctx context.Context, system, prompt string, out interface{}) error
}

const (
	generateMarketPrompt = `You create prediction markets from current events.
Return a JSON object:
{"title": "question ending with ?", "description": "short context",
 "category": "sports|crypto|politics|entertainment|technology",
 "options": ["Option A", "Option B"], "eventTime": "RFC 3339 time the event resolves, optional"}
Markets must have clear outcomes that can be objectively verified and a clear resolution time.`

	analyzeMarketPrompt = `You analyze prediction markets.
Return a JSON object:
{"analysis": "brief analysis", "sentiment": "bullish|bearish|neutral", "confidence": 0.0-1.0,
 "factors": ["key factor"], "recommendation": "buy|sell|hold", "targetOption": 0}`

	fetchEventsPrompt = `You find current events suitable for prediction markets.
Return a JSON object {"events": [...]} with 3 to 5 entries of the form
{"title": "question?", "description": "why it is interesting",
 "category": "sports|crypto|politics|entertainment|technology",
 "options": ["Yes", "No"], "urgency": "high|medium|low", "dataSource": "where to verify the outcome"}`

	oracleDataPrompt = `You are an oracle that determines the outcome of prediction market questions
from publicly available information. Return a JSON object:
{"outcome": 0, "confidence": 0.0-1.0, "reasoning": "brief explanation",
 "sources": ["source"], "dataHash": "hash of the evidence"}
"outcome" is the index of the correct option. If the event has not happened or is uncertain,
return confidence below 0.5.`
)

// AIService generates, analyzes and reports on markets through a language
// model. A nil completer disables every operation with ErrAIDisabled.
type AIService struct {
	completer Completer
	repo      *repository.Repository
	markets   *MarketService
	oracles   *OracleService
	publisher events.Publisher
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewAIService creates a new AI service
func NewAIService(completer Completer, repo *repository.Repository, markets *MarketService, oracles *OracleService, publisher events.Publisher) *AIService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &AIService{
		completer: completer,
		repo:      repo,
		markets:   markets,
		oracles:   oracles,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logging.Named("ai-service"),
	}
}

// Enabled reports whether a model is configured
func (s *AIService) Enabled() bool {
	return s != nil && s.completer != nil
}

// GenerateMarketRequest steers market generation
type GenerateMarketRequest struct {
	Category string `json:"category" validate:"max=50"`
	Context  string `json:"context" validate:"max=2000"`
}

// MarketAnalysis is the model's view of one market
type MarketAnalysis struct {
	MarketID       uint     `json:"market_id"`
	Analysis       string   `json:"analysis"`
	Sentiment      string   `json:"sentiment"`
	Confidence     float64  `json:"confidence"`
	Factors        []string `json:"factors"`
	Recommendation string   `json:"recommendation"`
	TargetOption   *int     `json:"target_option,omitempty"`
}

// EventIdea is a suggested market that has not been created
type EventIdea struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Options     []string `json:"options"`
	Urgency     string   `json:"urgency"`
	DataSource  string   `json:"data_source"`
}

// OracleReading is the model's answer to a market question. Outcome,
// Confidence and DataHash map onto a VoteRequest.
type OracleReading struct {
	MarketID   uint     `json:"market_id"`
	Outcome    int      `json:"outcome"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Sources    []string `json:"sources"`
	DataHash   string   `json:"data_hash"`
}

// VoteRequest turns the reading into a vote cast by oracleID
func (r *OracleReading) VoteRequest(oracleID uint) *VoteRequest {
	confidence := r.Confidence
	return &VoteRequest{
		OracleID:   oracleID,
		MarketID:   r.MarketID,
		Vote:       r.Outcome,
		Confidence: &confidence,
		DataHash:   r.DataHash,
	}
}

// OracleReport is a reading and, when an oracle was named, its stored vote
type OracleReport struct {
	*OracleReading
	Vote *VoteResult `json:"vote,omitempty"`
}

type generatedMarket struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Options     []string `json:"options"`
	EventTime   string   `json:"eventTime"`
}

// GenerateMarket asks the model for a market and opens it as the AI agent
func (s *AIService) GenerateMarket(ctx context.Context, req *GenerateMarketRequest) (*CreateMarketResult, error) {
	if !s.Enabled() {
		return nil, ErrAIDisabled
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "general"
	}
	prompt := "Create a prediction market for category: " + category + "."
	if req.Context != "" {
		prompt += " Context: " + req.Context
	}

	var gen generatedMarket
	if err := s.completer.CompleteJSON(ctx, generateMarketPrompt, prompt, &gen); err != nil {
		return nil, err
	}

	options := make([]string, 0, len(gen.Options))
	for _, o := range gen.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	title := strings.TrimSpace(gen.Title)
	if title == "" || len(options) < 2 {
		return nil, fmt.Errorf("%w: generated market needs a title and two options", ErrAIResponse)
	}
	if gen.Category != "" {
		category = strings.ToLower(strings.TrimSpace(gen.Category))
	}

	var eventTime *time.Time
	if gen.EventTime != "" {
		t, err := time.Parse(time.RFC3339, gen.EventTime)
		if err != nil {
			s.logger.Warn("[AI] ignoring unparseable event time", zap.String("event_time", gen.EventTime))
		} else {
			eventTime = &t
		}
	}

	created, err := s.markets.CreateMarket(ctx, &CreateMarketRequest{
		Title:       title,
		Description: gen.Description,
		Category:    category,
		Options:     options,
		EventTime:   eventTime,
		CreatedBy:   AIAgentCreator,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, fmt.Errorf("%w: %v", ErrAIResponse, err)
		}
		return nil, err
	}

	market := created.Market
	if err := s.repo.AppendEvent(ctx, &market.ID, models.EventAIMarketCreated, models.JSONMap{
		"prompt":   req.Context,
		"category": req.Category,
	}); err != nil {
		s.logger.Error("[AI] failed to record generation event", zap.Uint("market_id", market.ID), zap.Error(err))
	}

	s.logger.Info("[AI] market generated",
		zap.Uint("market_id", market.ID),
		zap.String("title", market.Title),
		zap.String("category", market.Category),
	)
	s.publisher.Publish(ctx, models.EventAIMarketCreated, map[string]interface{}{
		"market":  market,
		"tx_hash": created.TxHash,
	})
	return created, nil
}

// AnalyzeMarket asks the model for sentiment and a recommendation on a market
func (s *AIService) AnalyzeMarket(ctx context.Context, marketID uint) (*MarketAnalysis, error) {
	if !s.Enabled() {
		return nil, ErrAIDisabled
	}
	market, err := s.markets.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	snapshot, err := json.Marshal(map[string]interface{}{
		"title":        market.Title,
		"description":  market.Description,
		"category":     market.Category,
		"options":      market.Options,
		"odds":         market.Odds,
		"total_volume": market.TotalVolume,
		"status":       market.Status,
		"event_time":   market.EventTime,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Analysis       string   `json:"analysis"`
		Sentiment      string   `json:"sentiment"`
		Confidence     float64  `json:"confidence"`
		Factors        []string `json:"factors"`
		Recommendation string   `json:"recommendation"`
		TargetOption   *int     `json:"targetOption"`
	}
	if err := s.completer.CompleteJSON(ctx, analyzeMarketPrompt, "Analyze this prediction market: "+string(snapshot), &out); err != nil {
		return nil, err
	}

	analysis := &MarketAnalysis{
		MarketID:       market.ID,
		Analysis:       out.Analysis,
		Sentiment:      out.Sentiment,
		Confidence:     clampUnit(out.Confidence),
		Factors:        out.Factors,
		Recommendation: out.Recommendation,
	}
	if out.TargetOption != nil && market.HasOption(*out.TargetOption) {
		analysis.TargetOption = out.TargetOption
	}
	if analysis.Factors == nil {
		analysis.Factors = []string{}
	}
	return analysis, nil
}

// FetchEvents asks the model for market ideas in a category
func (s *AIService) FetchEvents(ctx context.Context, category string) ([]EventIdea, error) {
	if !s.Enabled() {
		return nil, ErrAIDisabled
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = "trending"
	}

	type idea struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Options     []string `json:"options"`
		Urgency     string   `json:"urgency"`
		DataSource  string   `json:"dataSource"`
	}
	var out struct {
		Events  []idea `json:"events"`
		Markets []idea `json:"markets"`
	}
	if err := s.completer.CompleteJSON(ctx, fetchEventsPrompt, "Find prediction market opportunities for category: "+category, &out); err != nil {
		return nil, err
	}

	raw := out.Events
	if len(raw) == 0 {
		raw = out.Markets
	}
	ideas := make([]EventIdea, 0, len(raw))
	for _, e := range raw {
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		ideas = append(ideas, EventIdea(e))
	}
	return ideas, nil
}

// OracleData asks the model which option of a market is correct. When
// oracleID is non-zero the reading is submitted as that oracle's vote.
func (s *AIService) OracleData(ctx context.Context, marketID, oracleID uint) (*OracleReport, error) {
	if !s.Enabled() {
		return nil, ErrAIDisabled
	}
	market, err := s.markets.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	options, err := json.Marshal(market.Options)
	if err != nil {
		return nil, err
	}

	var out struct {
		Outcome    *int     `json:"outcome"`
		Confidence float64  `json:"confidence"`
		Reasoning  string   `json:"reasoning"`
		Sources    []string `json:"sources"`
		DataHash   string   `json:"dataHash"`
	}
	prompt := fmt.Sprintf("Determine outcome for: %q Options: %s", market.Title, options)
	if err := s.completer.CompleteJSON(ctx, oracleDataPrompt, prompt, &out); err != nil {
		return nil, err
	}
	if out.Outcome == nil || !market.HasOption(*out.Outcome) {
		return nil, fmt.Errorf("%w: outcome is not an option of market %d", ErrAIResponse, market.ID)
	}

	reading := &OracleReading{
		MarketID:   market.ID,
		Outcome:    *out.Outcome,
		Confidence: clampUnit(out.Confidence),
		Reasoning:  out.Reasoning,
		Sources:    out.Sources,
		DataHash:   out.DataHash,
	}
	if reading.Sources == nil {
		reading.Sources = []string{}
	}
	if reading.DataHash == "" || len(reading.DataHash) > 255 {
		reading.DataHash = evidenceHash(reading)
	}

	report := &OracleReport{OracleReading: reading}
	if oracleID == 0 {
		return report, nil
	}
	if s.oracles == nil {
		return nil, ErrAIDisabled
	}
	vote, err := s.oracles.SubmitVote(ctx, reading.VoteRequest(oracleID))
	if err != nil {
		return nil, err
	}
	report.Vote = vote
	return report, nil
}

// evidenceHash digests the reasoning and sources of a reading
func evidenceHash(r *OracleReading) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s", r.MarketID, r.Outcome, r.Reasoning)
	for _, src := range r.Sources {
		h.Write([]byte{'|'})
		h.Write([]byte(src))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
