package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"oracle-market/internal/logging"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultModel is used when Config.Model is empty
const DefaultModel = "gpt-4o-mini"

var (
	// ErrUnavailable wraps transport and API failures
	ErrUnavailable = errors.New("ai provider unavailable")
	// ErrBadResponse is returned when the completion is empty or not the
	// requested JSON
	ErrBadResponse = errors.New("ai returned an unusable response")
)

// Config configures Client. BaseURL points at any OpenAI-compatible API.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables throttling
}

// Client asks a chat model for JSON objects
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a chat completion client
func NewClient(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   model,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.Named("ai-client"),
	}
}

// Model returns the model name requests are sent with
func (c *Client) Model() string {
	return c.model
}

// CompleteJSON sends a system and a user message in JSON mode and decodes
// the first choice into out.
func (c *Client) CompleteJSON(ctx context.Context, system, prompt string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		c.logger.Warn("[AI] completion failed", zap.String("model", c.model), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("%w: no choices", ErrBadResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug("[AI] completion received",
		zap.String("model", c.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)),
	)
	if content == "" {
		return fmt.Errorf("%w: empty content", ErrBadResponse)
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}
