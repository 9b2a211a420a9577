package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/change-control/internal/config"
)

const redisConnectTimeout = 3 * time.Second

// Redis holds the client backing the deployment status cache.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client and checks it once. An unreachable server is not
// fatal: the status cache falls back to Postgres on every read error.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	fields := []zap.Field{
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.Duration("status_cache_ttl", cfg.StatusCacheTTL()),
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis; deployment statuses will be read from postgres",
			append(fields, zap.Error(err))...)
	} else {
		logger.Info("connected to redis", fields...)
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
