package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/blogit/internal/database"
	"github.com/hugh/blogit/internal/tasks"
	"github.com/hugh/blogit/internal/votes"
	"github.com/hugh/blogit/pkg/config"
	"github.com/hugh/blogit/pkg/queue"
	"github.com/hugh/blogit/pkg/util"
	"github.com/joho/godotenv"
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

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env, "worker")
	slog.SetDefault(logger)

	logger.Info("starting BlogIt worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency, logger)

	// Create task handler
	tally := votes.NewTally(db, cfg.Blog.VoteThreshold, logger)
	handler := tasks.NewHandler(tally, logger)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Periodic full reconcile
	var scheduler *asynq.Scheduler
	if cfg.Worker.ReconcileCron != "" {
		task, err := tasks.NewVoteReconcileTask()
		if err != nil {
			logger.Error("failed to build reconcile task", "error", err)
			os.Exit(1)
		}
		scheduler, err = queue.NewScheduler(&cfg.Redis, cfg.Worker.ReconcileCron, task)
		if err != nil {
			logger.Error("failed to create scheduler", "error", err)
			os.Exit(1)
		}
		if err := scheduler.Start(); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}

		next, _ := util.NextCronTime(cfg.Worker.ReconcileCron, time.Now())
		logger.Info("vote reconcile scheduled", "cron", cfg.Worker.ReconcileCron, "next_run", next)
	}

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		if scheduler != nil {
			scheduler.Shutdown()
		}
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close database connection
	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	logger.Info("worker stopped")
}
