package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"oracle-market/internal/ai"
	"oracle-market/internal/auth"
	"oracle-market/internal/blockchain"
	"oracle-market/internal/config"
	"oracle-market/internal/database"
	"oracle-market/internal/events"
	"oracle-market/internal/handlers"
	"oracle-market/internal/jobs"
	"oracle-market/internal/logging"
	"oracle-market/internal/repository"
	"oracle-market/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Sync()
	logger := logging.Named("main")

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
	logger.Info("Server exited")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	auth.InitJWT(cfg.App.JWTSecret)

	if err := database.Connect(cfg.Database.Driver, cfg.GetDSN()); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.AutoMigrate(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	ledger, err := newLedger(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	logger.Info("ledger ready", zap.String("mode", cfg.Ledger.Mode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	origins := cfg.CORSOrigins()
	hub := events.NewHub(func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == origin {
				return true
			}
		}
		return false
	})
	g.Go(func() error { return hub.Run(ctx) })

	var publisher events.Publisher = hub
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()

		bus := events.NewRedisBus(rdb, cfg.Redis.Channel)
		publisher = events.Multi{hub, bus}
		g.Go(func() error { return bus.Relay(ctx, hub.Broadcast) })
		logger.Info("redis event bus enabled", zap.String("channel", cfg.Redis.Channel))
	}

	repo := repository.NewRepository(database.GetDB())
	marketService := services.NewMarketService(repo, ledger, publisher)
	marketService.SetDefaultLiquidity(cfg.App.DefaultLiquidity)
	oracleService := services.NewOracleService(repo, marketService, ledger, publisher)
	botService := services.NewBotService(repo, marketService, publisher)
	analyticsService := services.NewAnalyticsService(repo)

	var completer services.Completer
	if cfg.AI.Enabled() {
		client := ai.NewClient(ai.Config{
			APIKey:    cfg.AI.APIKey,
			BaseURL:   cfg.AI.BaseURL,
			Model:     cfg.AI.Model,
			Timeout:   cfg.AI.Timeout,
			RateLimit: cfg.AI.RateLimit,
		})
		completer = client
		logger.Info("ai features enabled", zap.String("model", client.Model()))
	}
	aiService := services.NewAIService(completer, repo, marketService, oracleService, publisher)

	resolver := jobs.NewMarketResolver(marketService, cfg.Jobs.SweepInterval)
	g.Go(func() error {
		resolver.Start(ctx)
		return nil
	})
	if cfg.Jobs.BotInterval > 0 {
		runner := jobs.NewBotRunner(botService)
		g.Go(func() error {
			runner.Start(ctx, cfg.Jobs.BotInterval)
			return nil
		})
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", handlers.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", handlers.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"time":        time.Now().Format(time.RFC3339),
			"ledger_mode": cfg.Ledger.Mode,
			"ai_enabled":  aiService.Enabled(),
			"ws_clients":  hub.ClientCount(),
		})
	})

	handlers.RegisterRoutes(router, handlers.Dependencies{
		Markets:   marketService,
		Oracles:   oracleService,
		Bots:      botService,
		Analytics: analyticsService,
		AI:        aiService,
		Ledger:    ledger,
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLedger(cfg config.LedgerConfig) (blockchain.Ledger, error) {
	switch cfg.Mode {
	case "solana":
		return blockchain.NewSolanaLedger(blockchain.SolanaLedgerConfig{
			Network:     cfg.SolanaNetwork,
			RPCURL:      cfg.SolanaRPCURL,
			PrivateKey:  cfg.SolanaKey,
			RateLimit:   cfg.RateLimit,
			HistorySize: cfg.HistorySize,
		})
	default:
		return blockchain.NewSimulatedLedger(blockchain.SimulatedLedgerConfig{
			MinDelay:    cfg.MinDelay,
			MaxDelay:    cfg.MaxDelay,
			HistorySize: cfg.HistorySize,
		}), nil
	}
}
