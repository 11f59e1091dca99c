package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/echo-recall/backend/internal/api/handlers"
	"github.com/echo-recall/backend/internal/cache/redis"
	"github.com/echo-recall/backend/internal/llm"
	"github.com/echo-recall/backend/internal/llm/claude"
	"github.com/echo-recall/backend/internal/llm/gemini"
	"github.com/echo-recall/backend/internal/llm/openai"
	"github.com/echo-recall/backend/internal/metrics"
	"github.com/echo-recall/backend/internal/middleware/ratelimit"
	"github.com/echo-recall/backend/internal/middleware/security"
	"github.com/echo-recall/backend/internal/middleware/validation"
	"github.com/echo-recall/backend/internal/session"
	"github.com/echo-recall/backend/internal/settings"
	"github.com/echo-recall/backend/internal/storage/sqlite"
	"github.com/echo-recall/backend/pkg/config"
	appLogger "github.com/echo-recall/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Echo Recall API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			appLogger.Warn("Analysis cache unavailable, continuing without it", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	timeout := time.Duration(cfg.LLM.TimeoutSec) * time.Second
	var completer llm.Completer
	switch cfg.LLM.Provider {
	case "gemini":
		completer = gemini.NewClient(cfg.LLM.Gemini.Model, timeout)
	case "openai":
		completer = openai.NewClient(
			cfg.LLM.OpenAI.Model,
			cfg.LLM.OpenAI.BaseURL,
			cfg.LLM.OpenAI.Temperature,
			cfg.LLM.OpenAI.MaxTokens,
		)
	case "claude":
		completer = claude.NewClient(cfg.LLM.Claude.Model, cfg.LLM.Claude.Version, timeout)
	default:
		appLogger.Fatal("Unknown LLM provider", zap.String("provider", cfg.LLM.Provider))
	}
	gateway := llm.NewGateway(completer)

	settingsStore := settings.NewStore(sqliteClient)
	sessionStore := session.NewStore()
	hub := session.NewHub()
	manager := session.NewManager(sessionStore, hub, gateway, sqliteClient, settingsStore, cacheClient, cfg)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Client-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.Get(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		MaxHTMLSize: cfg.Server.BodyLimit,
		Logger:      appLogger.Get(),
	}))

	sessionHandler := handlers.NewSessionHandler(manager)
	historyHandler := handlers.NewHistoryHandler(sqliteClient)
	settingsHandler := handlers.NewSettingsHandler(settingsStore, gateway)
	oauthHandler := handlers.NewOAuthHandler(cfg.OAuth, settingsStore)
	extractHandler := handlers.NewExtractHandler()
	wsHandler := handlers.NewWebSocketHandler(manager, hub)

	api := app.Group("/api/v1")

	api.Post("/sessions", sessionHandler.CreateSession)
	api.Get("/sessions/:id", sessionHandler.GetSession)
	api.Post("/sessions/:id/start", sessionHandler.Start)
	api.Post("/sessions/:id/recall", sessionHandler.SubmitRecall)
	api.Post("/sessions/:id/deepdive", sessionHandler.AnswerDeepDive)
	api.Post("/sessions/:id/save", sessionHandler.Save)
	api.Post("/sessions/:id/back", sessionHandler.Back)
	api.Post("/sessions/:id/history", sessionHandler.ViewHistory)
	api.Post("/sessions/:id/history/:recordID", sessionHandler.SelectRecord)

	api.Get("/history", historyHandler.ListRecords)
	api.Get("/history/:id", historyHandler.GetRecord)
	api.Delete("/history/:id", historyHandler.DeleteRecord)
	api.Delete("/history", historyHandler.ClearRecords)

	api.Get("/settings", settingsHandler.GetSettings)
	api.Put("/settings/credential", settingsHandler.SetCredential)
	api.Delete("/settings/credential", settingsHandler.ClearCredential)
	api.Put("/settings/darkmode", settingsHandler.SetDarkMode)

	api.Get("/auth/google/login", oauthHandler.Login)
	api.Get("/auth/google/callback", oauthHandler.Callback)

	api.Post("/extract", extractHandler.Extract)

	app.Get("/ws/sessions/:id", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
