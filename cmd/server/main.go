package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hugh/blogit/internal/api"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/categories"
	"github.com/hugh/blogit/internal/database"
	"github.com/hugh/blogit/internal/metrics"
	"github.com/hugh/blogit/internal/posts"
	"github.com/hugh/blogit/internal/votes"
	"github.com/hugh/blogit/pkg/config"
	"github.com/hugh/blogit/pkg/crypto"
	"github.com/hugh/blogit/pkg/util"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := cfg.RequireEncryptionKey(); err != nil {
		slog.Error("refusing to start", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env, "server")
	slog.SetDefault(logger)

	logger.Info("starting BlogIt server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Production schemas are migrated with `admin migrate`
	if cfg.Server.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient = nil
	}

	// Initialize encryptor for auth tokens at rest
	encryptor, err := crypto.NewEncryptor(cfg.Auth.EncryptionKey)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}
	if cfg.Auth.EncryptionKey == "" {
		logger.Warn("ENCRYPTION_KEY not set, using generated key - existing users cannot log in after restart")
	}

	// Without Redis no revocation from the admin CLI can reach the cache
	cacheSize := cfg.Auth.CacheSize
	if cacheSize > 0 && redisClient == nil {
		logger.Warn("credential cache disabled, Redis unavailable")
		cacheSize = 0
	}

	// Initialize services
	verifier := auth.NewVerifier(db, cacheSize, cfg.Auth.CacheTTL())
	authService := auth.NewService(db, encryptor, logger).WithVerifier(verifier)

	listenCtx, stopListening := context.WithCancel(context.Background())
	defer stopListening()
	if cacheSize > 0 {
		go verifier.Listen(listenCtx, redisClient, logger)
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		AuthService:    authService,
		Verifier:       verifier,
		Filter:         posts.NewFilter(db, cfg.Blog.DefaultPageSize, cfg.Blog.MaxPageSize),
		PostService:    posts.NewService(db, logger),
		Tally:          votes.NewTally(db, cfg.Blog.VoteThreshold, logger),
		Categories:     categories.NewService(db, logger),
		MetricsHandler: metrics.Handler(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitReqs:  cfg.RateLimit.Requests,
		RateLimitSecs:  cfg.RateLimit.WindowSeconds,
		TrustProxy:     cfg.RateLimit.TrustProxy,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	stopListening()

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	// Close database connection
	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	logger.Info("server stopped")
}
