package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/database"
	"github.com/hugh/blogit/internal/votes"
	"github.com/hugh/blogit/pkg/config"
	"github.com/hugh/blogit/pkg/crypto"
	"github.com/hugh/blogit/pkg/queue"
	"github.com/hugh/blogit/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app holds what every admin command works against.
type app struct {
	db        *gorm.DB
	logger    *slog.Logger
	encryptor *crypto.Encryptor
	threshold int

	// invalidator tells running servers to drop cached credentials. Nil
	// when Redis is unreachable.
	invalidator auth.Forgetter

	// enqueue hands a task to the worker instead of running it inline.
	enqueue func(ctx context.Context, task *asynq.Task) error
	close   func() error
}

func (a *app) authService() *auth.Service {
	svc := auth.NewService(a.db, a.encryptor, a.logger)
	if a.invalidator != nil {
		svc.WithVerifier(a.invalidator)
	}
	return svc
}

func (a *app) tally() *votes.Tally {
	return votes.NewTally(a.db, a.threshold, a.logger)
}

// loadApp connects to the configured database and Redis.
func loadApp() (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.RequireEncryptionKey(); err != nil {
		return nil, err
	}

	logger := util.NewLogger(cfg.Server.Env, "admin")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	encryptor, err := crypto.NewEncryptor(cfg.Auth.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	var invalidator auth.Forgetter
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis, servers keep cached credentials until they expire",
			"error", err,
			"ttl", cfg.Auth.CacheTTL(),
		)
		_ = redisClient.Close()
		redisClient = nil
	} else {
		invalidator = auth.NewInvalidator(redisClient, logger)
	}

	var client *asynq.Client
	return &app{
		db:          db,
		logger:      logger,
		encryptor:   encryptor,
		threshold:   cfg.Blog.VoteThreshold,
		invalidator: invalidator,
		enqueue: func(ctx context.Context, task *asynq.Task) error {
			if client == nil {
				client = queue.NewClient(&cfg.Redis)
			}
			info, err := client.EnqueueContext(ctx, task)
			if err != nil {
				return fmt.Errorf("enqueueing %s: %w", task.Type(), err)
			}
			logger.Info("task enqueued", "type", task.Type(), "id", info.ID, "queue", info.Queue)
			return nil
		},
		close: func() error {
			if client != nil {
				_ = client.Close()
			}
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return database.Close(db)
		},
	}, nil
}

func newRootCmd(load func() (*app, error)) *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Administrate a BlogIt deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = load()
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a == nil || a.close == nil {
				return nil
			}
			return a.close()
		},
	}

	current := func() *app { return a }

	root.AddCommand(
		migrateCmd(current),
		seedCmd(current),
		userCmd(current),
		reconcileCmd(current),
	)
	return root
}

func main() {
	if err := newRootCmd(loadApp).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
