package handlers

import (
	"net/http"

	"oracle-market/internal/auth"
	"oracle-market/internal/blockchain"
	"oracle-market/internal/events"
	"oracle-market/internal/services"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP surface is built from
type Dependencies struct {
	Markets   *services.MarketService
	Oracles   *services.OracleService
	Bots      *services.BotService
	Analytics *services.AnalyticsService
	AI        *services.AIService
	Ledger    blockchain.Ledger
	Hub       *events.Hub
}

// RegisterRoutes mounts every API route on router
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	marketHandler := NewMarketHandler(deps.Markets)
	oracleHandler := NewOracleHandler(deps.Oracles)
	botHandler := NewBotHandler(deps.Bots)
	analyticsHandler := NewAnalyticsHandler(deps.Analytics)
	ledgerHandler := NewLedgerHandler(deps.Ledger)
	aiHandler := NewAIHandler(deps.AI)

	if deps.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			deps.Hub.HandleWS(c.Writer, c.Request)
		})
	}

	api := router.Group("/api")
	{
		api.GET("/markets", marketHandler.GetMarkets)
		api.GET("/markets/:id", marketHandler.GetMarketByID)
		api.POST("/markets/:id/trade", marketHandler.PlaceTrade)

		api.GET("/oracles", oracleHandler.GetOracles)
		api.GET("/oracles/votes/:marketId", oracleHandler.GetVotes)
		api.POST("/oracles/:id/vote", oracleHandler.SubmitVote)

		api.GET("/bots", botHandler.GetBots)
		api.GET("/bots/:id", botHandler.GetBot)
		api.POST("/bots/:id/execute", botHandler.ExecuteBot)

		analytics := api.Group("/analytics")
		{
			analytics.GET("/overview", analyticsHandler.GetOverview)
			analytics.GET("/volume", analyticsHandler.GetVolumeHistory)
			analytics.GET("/top-markets", analyticsHandler.GetTopMarkets)
			analytics.GET("/oracles", analyticsHandler.GetOraclePerformance)
			analytics.GET("/bots", analyticsHandler.GetBotLeaderboard)
			analytics.GET("/events", analyticsHandler.GetRecentEvents)
			analytics.GET("/categories", analyticsHandler.GetCategoryBreakdown)
		}

		api.GET("/ledger/stats", ledgerHandler.GetStats)
		api.GET("/ledger/transactions", ledgerHandler.GetTransactions)
		api.GET("/ledger/diagnostics", ledgerHandler.GetDiagnostics)

		api.POST("/ai/analyze-market", aiHandler.AnalyzeMarket)
		api.POST("/ai/fetch-events", aiHandler.FetchEvents)
	}

	operator := router.Group("/api")
	operator.Use(auth.OperatorMiddleware())
	{
		operator.POST("/markets", marketHandler.CreateMarket)
		operator.DELETE("/markets/:id", marketHandler.DeleteMarket)
		operator.POST("/markets/:id/resolve", marketHandler.ResolveMarket)

		operator.POST("/oracles", oracleHandler.RegisterOracle)

		operator.POST("/bots", botHandler.CreateBot)
		operator.PATCH("/bots/:id/toggle", botHandler.ToggleBot)

		operator.POST("/ai/generate-market", aiHandler.GenerateMarket)
		operator.POST("/ai/oracle-data", aiHandler.OracleData)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
