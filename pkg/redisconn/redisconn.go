package redisconn

import (
	"context"
	"strings"

	"github.com/leaseline/leaseline/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// New builds the shared redis client. Returns nil when redis is not
// configured; consumers that require redis fall back to their DB-backed
// implementations in that case.
func New(cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Named("redis").Warn("redis not configured, DB-backed fallbacks will be used")
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
}

func registerHooks(lc fx.Lifecycle, client *redis.Client) {
	if client == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}

var Module = fx.Module("redis",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
