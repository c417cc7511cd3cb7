package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/config"
	"github.com/spec-kit/freeler-client/internal/observability"
)

// RedisBackend stores entries as plain Redis strings without expiry.
type RedisBackend struct {
	Client *redis.Client
}

// NewRedisBackend connects to Redis using the provided configuration.
// An unreachable server is logged, not fatal: reads will then report absent.
func NewRedisBackend(cfg config.RedisConfig, logger *zap.Logger) *RedisBackend {
	logger = observability.OrNop(logger)
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &RedisBackend{Client: client}
}

func (r *RedisBackend) Read(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return raw, err
}

func (r *RedisBackend) Write(ctx context.Context, key string, value []byte) error {
	return r.Client.Set(ctx, key, value, 0).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}

// Close closes the client.
func (r *RedisBackend) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
