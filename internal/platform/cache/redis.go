package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/pkg/config"
)

// NewRedis returns nil when no address is configured; callers treat a nil
// client as "cache disabled".
func NewRedis(lc fx.Lifecycle, cfg *config.Config, l *zap.SugaredLogger) *redis.Client {
	if cfg.Redis.Addr == "" {
		l.Infow("redis disabled, membership lookups go straight to the database")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// an unreachable cache is not fatal; lookups fall through to the database
			if err := rdb.Ping(ctx).Err(); err != nil {
				l.Warnw("redis ping failed", "addr", cfg.Redis.Addr, "err", err)
			} else {
				l.Infow("connected to redis", "addr", cfg.Redis.Addr)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return rdb
}

var Module = fx.Options(
	fx.Provide(NewRedis),
)
