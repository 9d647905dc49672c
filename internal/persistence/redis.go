package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/config"
)

// RedisStore holds the client behind the login rate limiter.
type RedisStore struct {
	Client *redis.Client
}

// OpenRedis never fails: the limiter lets requests through while redis is
// away, so an unreachable server at boot is only a warning.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *RedisStore {
	store := &RedisStore{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})}

	if err := store.Ping(ctx); err != nil {
		logger.Warn("redis unreachable; login rate limit will fail open",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("redis ready", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return store
}

func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping backs the redis entry of the health endpoint.
func (r *RedisStore) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return fmt.Errorf("redis: %w", errNotConnected)
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}
