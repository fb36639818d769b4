package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/blogit/pkg/config"
	"github.com/hugh/blogit/pkg/util"
)

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	}
}

func NewClient(cfg *config.RedisConfig) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

func NewServer(cfg *config.RedisConfig, concurrency int, logger *slog.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}

	return asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)
}

func NewInspector(cfg *config.RedisConfig) *asynq.Inspector {
	return asynq.NewInspector(redisOpt(cfg))
}

// NewScheduler returns an asynq scheduler that enqueues task on the cron
// expression cronExpr. The expression is validated before anything touches
// Redis.
func NewScheduler(cfg *config.RedisConfig, cronExpr string, task *asynq.Task) (*asynq.Scheduler, error) {
	if err := util.ValidateCronExpr(cronExpr); err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{})
	if _, err := scheduler.Register(cronExpr, task); err != nil {
		return nil, fmt.Errorf("registering %s: %w", task.Type(), err)
	}
	return scheduler, nil
}
