package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/eshop/internal/config"
	"go.uber.org/fx"
)

const keyWriteClient = "eshop:write:client:%s"

// Limiter decides whether a write from client may proceed.
type Limiter interface {
	AllowWrite(ctx context.Context, client string) (*Result, error)
}

// WriteLimiter throttles mutating purchase requests per client address.
type WriteLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewWriteLimiter returns nil when limiting is disabled or no redis is configured.
func NewWriteLimiter(lc fx.Lifecycle, cfg config.Config) Limiter {
	limitCfg := cfg.RateLimit
	addr := strings.TrimSpace(cfg.Cache.RedisAddr)
	if !limitCfg.Enabled || addr == "" || limitCfg.WriteRate <= 0 || limitCfg.WriteBurst <= 0 {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return &WriteLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.WriteRate,
		burst:  limitCfg.WriteBurst,
	}
}

func (l *WriteLimiter) AllowWrite(ctx context.Context, client string) (*Result, error) {
	key := fmt.Sprintf(keyWriteClient, strings.TrimSpace(client))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
