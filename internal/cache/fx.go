package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/eshop/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(NewStore),
)

// NewStore returns a redis backed store when REDIS_ADDR is set and an in-process store otherwise.
func NewStore(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Store {
	if cfg.Cache.RedisAddr == "" {
		log.Info("supplier cache using in-process store")
		return NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := client.Ping(pingCtx).Err(); err != nil {
				log.Warn("redis unreachable, supplier cache lookups will fall through", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	log.Info("supplier cache using redis", zap.String("addr", cfg.Cache.RedisAddr))
	return NewRedisStore(client)
}
