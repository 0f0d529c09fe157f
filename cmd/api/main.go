package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reuse-atlas/internal/archive"
	"reuse-atlas/internal/cleanup"
	"reuse-atlas/internal/config"
	"reuse-atlas/internal/database"
	"reuse-atlas/internal/geocache"
	"reuse-atlas/internal/handlers"
	"reuse-atlas/internal/logging"
	"reuse-atlas/internal/neighborhood"
	"reuse-atlas/internal/ratelimit"
	"reuse-atlas/internal/recommend"
	"reuse-atlas/internal/scheduler"
	"reuse-atlas/internal/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/config.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", configPath, err)
	}

	logger, err := logging.New(appConfig.Logging.Level, appConfig.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.String("path", configPath))

	// Initialize database based on configuration
	db, err := database.Open(appConfig.Database, logging.GormLevel(appConfig.Logging.Level))
	if err != nil {
		logger.Fatal("failed to connect to database", zap.String("type", appConfig.Database.Type), zap.Error(err))
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}
	logger.Info("database ready", zap.String("type", appConfig.Database.Type))

	// Full-text archive search is optional
	var index archive.Index
	if appConfig.Search.SearchEnabled() {
		ms := appConfig.Search.Meilisearch
		searchClient := search.NewSearchClient(ms.Host, ms.APIKey, ms.Index)
		if err := searchClient.InitIndex(); err != nil {
			logger.Warn("failed to initialize search index", zap.Error(err))
		}
		index = searchClient
		logger.Info("archive search enabled", zap.String("host", ms.Host), zap.String("index", ms.Index))
	}

	cache := geocache.New(db, logger)
	analyzer := neighborhood.NewAnalyzer(cache, logger)
	precedents := archive.New(db, index, logger)
	engine := recommend.NewEngine(db, cache, precedents, db, logger)
	cleanupService := cleanup.NewService(db, logger)

	var reindexer scheduler.Reindexer
	if index != nil {
		reindexer = precedents
	}
	appScheduler := scheduler.NewScheduler(cleanupService, reindexer, appConfig, logger)
	if err := appScheduler.Start(); err != nil {
		logger.Warn("failed to start scheduler", zap.Error(err))
	}
	defer appScheduler.Stop()

	// Initialize write throttle
	rc := appConfig.RateLimit
	rateLimiter := ratelimit.NewRateLimiter(rc.RequestsPerMinute, rc.RequestsPerHour, rc.RequestsPerDay, rc.Enabled)
	logger.Info("write throttle initialized",
		zap.Int("per_minute", rc.RequestsPerMinute),
		zap.Int("per_hour", rc.RequestsPerHour),
		zap.Int("per_day", rc.RequestsPerDay),
		zap.Bool("enabled", rc.Enabled))

	// Setup Gin router
	gin.SetMode(appConfig.Server.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if appConfig.Logging.LogRequests {
		r.Use(handlers.RequestLogger(logger))
	}

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Routes
	r.GET("/health", healthCheck)
	r.GET("/api/ratelimit/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, rateLimiter.GetStats())
	})

	handlers.Set{
		Neighborhood: handlers.NewNeighborhoodHandler(analyzer, logger),
		Recommend:    handlers.NewRecommendHandler(engine, logger),
		Archive:      handlers.NewArchiveHandler(precedents, logger),
		GhostSites:   handlers.NewGhostSiteHandler(db, logger),
		Admin:        handlers.NewAdminHandler(db, cleanupService, appScheduler, logger),
	}.Register(r, rateLimiter.Middleware())

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", zap.String("port", appConfig.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
