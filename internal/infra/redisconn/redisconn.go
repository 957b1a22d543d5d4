package redisconn

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/toannhu96/gia-vang-365/internal/config"
)

// NewClient builds the Redis client. A failed startup ping is logged, not
// fatal: the cache layer degrades to the producers until Redis comes back.
func NewClient(cfg *config.RedisConfig, logger *slog.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup, caching degraded",
			slog.String("addr", cfg.Addr),
			slog.String("error", err.Error()),
		)
	}
	return rdb
}
