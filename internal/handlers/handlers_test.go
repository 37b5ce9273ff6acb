package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"oracle-market/internal/ai"
	"oracle-market/internal/auth"
	"oracle-market/internal/blockchain"
	"oracle-market/internal/models"
	"oracle-market/internal/repository"
	"oracle-market/internal/services"
	"oracle-market/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
	Total   int64           `json:"total"`
	Error   string          `json:"error"`
}

type testServer struct {
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithAI(t, nil)
}

func newTestServerWithAI(t *testing.T, completer services.Completer) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.InitJWT("handler-secret")

	repo := repository.NewRepository(testutil.NewDB(t))
	ledger := blockchain.NewSimulatedLedger(blockchain.SimulatedLedgerConfig{})
	markets := services.NewMarketService(repo, ledger, nil)
	oracles := services.NewOracleService(repo, markets, ledger, nil)

	router := gin.New()
	router.Use(RequestLogger())
	RegisterRoutes(router, Dependencies{
		Markets:   markets,
		Oracles:   oracles,
		Bots:      services.NewBotService(repo, markets, nil),
		Analytics: services.NewAnalyticsService(repo),
		AI:        services.NewAIService(completer, repo, markets, oracles, nil),
		Ledger:    ledger,
	})

	token, err := auth.GenerateToken("ops", time.Hour)
	require.NoError(t, err)
	return &testServer{router: router, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, operator bool) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if operator {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func (s *testServer) createMarket(t *testing.T) models.Market {
	t.Helper()
	w, resp := s.do(t, http.MethodPost, "/api/markets", gin.H{
		"title":    "Will it rain tomorrow?",
		"category": "weather",
		"options":  []string{"Yes", "No"},
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Market models.Market `json:"market"`
		TxHash string        `json:"tx_hash"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	assert.NotEmpty(t, res.TxHash)
	return res.Market
}

func TestCreateMarketRequiresOperator(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodPost, "/api/markets", gin.H{"title": "x", "category": "y", "options": []string{"a", "b"}}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateMarketValidation(t *testing.T) {
	s := newTestServer(t)
	w, resp := s.do(t, http.MethodPost, "/api/markets", gin.H{"title": "x", "category": "y", "options": []string{"only"}}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, resp.Error)
}

func TestMarketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	m := s.createMarket(t)
	assert.Equal(t, "ops", m.CreatedBy)

	w, resp := s.do(t, http.MethodPost, "/api/markets/"+itoa(m.ID)+"/trade", gin.H{
		"option_index":   0,
		"amount":         100,
		"is_buy":         true,
		"trader_address": "alice",
	}, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var trade services.TradeResult
	require.NoError(t, json.Unmarshal(resp.Data, &trade))
	assert.InDelta(t, 0.51, trade.NewOdds[0], 1e-9)

	w, resp = s.do(t, http.MethodGet, "/api/markets/"+itoa(m.ID), nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		ID     uint           `json:"id"`
		Trades []models.Trade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	assert.Equal(t, m.ID, detail.ID)
	assert.Len(t, detail.Trades, 1)

	w, _ = s.do(t, http.MethodPost, "/api/markets/"+itoa(m.ID)+"/resolve", gin.H{"outcome": 0}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = s.do(t, http.MethodPost, "/api/markets/"+itoa(m.ID)+"/resolve", gin.H{"outcome": 1}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, resp.Error)

	w, _ = s.do(t, http.MethodPost, "/api/markets/"+itoa(m.ID)+"/trade", gin.H{
		"option_index": 0, "amount": 5, "is_buy": true, "trader_address": "alice",
	}, false)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp = s.do(t, http.MethodGet, "/api/markets?status=resolved", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), resp.Total)

	w, _ = s.do(t, http.MethodDelete, "/api/markets/"+itoa(m.ID), nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/markets/"+itoa(m.ID), nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTradeRequestErrors(t *testing.T) {
	s := newTestServer(t)
	m := s.createMarket(t)

	tests := []struct {
		name string
		path string
		body gin.H
		code int
	}{
		{"bad id", "/api/markets/abc/trade", gin.H{"option_index": 0, "amount": 1, "is_buy": true, "trader_address": "a"}, http.StatusBadRequest},
		{"missing side", "/api/markets/" + itoa(m.ID) + "/trade", gin.H{"option_index": 0, "amount": 1, "trader_address": "a"}, http.StatusBadRequest},
		{"zero amount", "/api/markets/" + itoa(m.ID) + "/trade", gin.H{"option_index": 0, "amount": 0, "is_buy": true, "trader_address": "a"}, http.StatusBadRequest},
		{"option out of range", "/api/markets/" + itoa(m.ID) + "/trade", gin.H{"option_index": 7, "amount": 1, "is_buy": true, "trader_address": "a"}, http.StatusBadRequest},
		{"unknown market", "/api/markets/999/trade", gin.H{"option_index": 0, "amount": 1, "is_buy": true, "trader_address": "a"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, http.MethodPost, tt.path, tt.body, false)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestOracleVotingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	m := s.createMarket(t)

	var oracleIDs []uint
	for _, name := range []string{"a", "b", "c"} {
		w, resp := s.do(t, http.MethodPost, "/api/oracles", gin.H{"name": name, "data_source": name + ".feed"}, true)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var o models.OracleNode
		require.NoError(t, json.Unmarshal(resp.Data, &o))
		oracleIDs = append(oracleIDs, o.ID)
	}

	var last services.VoteResult
	for _, id := range oracleIDs {
		w, resp := s.do(t, http.MethodPost, "/api/oracles/"+itoa(id)+"/vote", gin.H{"market_id": m.ID, "vote": 1}, false)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(resp.Data, &last))
	}
	assert.True(t, last.Resolved)

	w, _ := s.do(t, http.MethodPost, "/api/oracles/"+itoa(oracleIDs[0])+"/vote", gin.H{"market_id": m.ID, "vote": 1}, false)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp := s.do(t, http.MethodGet, "/api/oracles/votes/"+itoa(m.ID), nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, resp.Count)

	w, resp = s.do(t, http.MethodGet, "/api/oracles", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, resp.Count)
}

func TestBotsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.createMarket(t)

	w, resp := s.do(t, http.MethodPost, "/api/bots", gin.H{"name": "arb", "owner_address": "me", "strategy": "arbitrage"}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var bot models.TradingBot
	require.NoError(t, json.Unmarshal(resp.Data, &bot))

	w, _ = s.do(t, http.MethodPost, "/api/bots", gin.H{"name": "x", "owner_address": "me", "strategy": "yolo"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = s.do(t, http.MethodPost, "/api/bots/"+itoa(bot.ID)+"/execute", nil, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var exec services.BotExecution
	require.NoError(t, json.Unmarshal(resp.Data, &exec))
	assert.Empty(t, exec.Trades)

	w, _ = s.do(t, http.MethodPatch, "/api/bots/"+itoa(bot.ID)+"/toggle", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/bots/"+itoa(bot.ID)+"/execute", nil, false)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/bots/999", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyticsAndLedgerRoutes(t *testing.T) {
	s := newTestServer(t)
	s.createMarket(t)

	for _, path := range []string{
		"/api/analytics/overview",
		"/api/analytics/volume?days=7",
		"/api/analytics/top-markets",
		"/api/analytics/oracles",
		"/api/analytics/bots",
		"/api/analytics/events",
		"/api/analytics/categories",
		"/api/ledger/stats",
		"/api/ledger/diagnostics",
	} {
		w, resp := s.do(t, http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.True(t, resp.Success, path)
	}

	w, resp := s.do(t, http.MethodGet, "/api/ledger/transactions", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Count)

	var stats blockchain.Stats
	_, resp = s.do(t, http.MethodGet, "/api/ledger/stats", nil, false)
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, int64(1), stats.ChainCount)
}

func TestAIRoutesDisabledWithoutModel(t *testing.T) {
	s := newTestServer(t)
	w, resp := s.do(t, http.MethodPost, "/api/ai/fetch-events", gin.H{"category": "sports"}, false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, resp.Error)
}

func TestAIRoutesOverHTTP(t *testing.T) {
	stub := testutil.NewChatStub(t,
		`{"title": "Will the derby end in a draw?", "description": "city derby", "category": "sports", "options": ["Yes", "No"]}`,
		`{"outcome": 0, "confidence": 0.8, "reasoning": "final whistle", "dataHash": "h1"}`,
		`{"events": [{"title": "Will the transfer close?", "options": ["Yes", "No"], "dataSource": "club site"}]}`,
		`not json`,
	)
	s := newTestServerWithAI(t, ai.NewClient(ai.Config{APIKey: "sk-test", BaseURL: stub.BaseURL()}))

	w, _ := s.do(t, http.MethodPost, "/api/ai/generate-market", gin.H{"category": "sports"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, stub.Requests(), "rejected before the model is called")

	w, resp := s.do(t, http.MethodPost, "/api/ai/generate-market", gin.H{"category": "sports"}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Market models.Market `json:"market"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, services.AIAgentCreator, created.Market.CreatedBy)

	w, _ = s.do(t, http.MethodPost, "/api/oracles", gin.H{"name": "gpt", "data_source": "model"}, true)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp = s.do(t, http.MethodPost, "/api/ai/oracle-data", gin.H{"market_id": created.Market.ID, "oracle_id": 1}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		Outcome    int     `json:"outcome"`
		Confidence float64 `json:"confidence"`
		DataHash   string  `json:"data_hash"`
		Vote       *struct {
			TotalVotes int `json:"total_votes"`
		} `json:"vote"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Equal(t, 0, report.Outcome)
	assert.Equal(t, 0.8, report.Confidence)
	assert.Equal(t, "h1", report.DataHash)
	require.NotNil(t, report.Vote)
	assert.Equal(t, 1, report.Vote.TotalVotes)

	w, resp = s.do(t, http.MethodPost, "/api/ai/fetch-events", nil, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, resp.Count)

	w, _ = s.do(t, http.MethodPost, "/api/ai/analyze-market", gin.H{"market_id": created.Market.ID}, false)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/ai/analyze-market", gin.H{}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/oracles", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w, _ = s.do(t, http.MethodGet, "/api/nowhere", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
