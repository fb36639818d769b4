package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// InvalidationChannel carries the emails whose cached credentials every
// server must drop.
const InvalidationChannel = "blogit:auth:invalidate"

const publishTimeout = 2 * time.Second

// Forgetter drops whatever is cached for an email.
type Forgetter interface {
	Forget(email string)
}

// Invalidator broadcasts Forget to other processes over Redis pub/sub.
type Invalidator struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewInvalidator(rdb *redis.Client, logger *slog.Logger) *Invalidator {
	return &Invalidator{rdb: rdb, logger: logger}
}

func (i *Invalidator) Forget(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := i.rdb.Publish(ctx, InvalidationChannel, email).Err(); err != nil {
		i.logger.Error("failed to publish credential invalidation", "error", err)
	}
}

// Listen applies invalidations published by other processes until ctx is
// done.
func (v *Verifier) Listen(ctx context.Context, rdb *redis.Client, logger *slog.Logger) {
	sub := rdb.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			v.Forget(msg.Payload)
			logger.Debug("cached credentials dropped", "channel", msg.Channel)
		}
	}
}
