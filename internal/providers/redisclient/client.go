// Package redisclient provides the shared Redis connection used by the
// template store and the export rate limiter.
package redisclient

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicer/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.redis",
	fx.Provide(New),
)

// New builds a client from config. go-redis dials lazily, so nothing connects
// until a command is sent.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Redis.Addr),
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})

	log = log.Named("providers.redis")
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			log.Info("closing redis client")
			return client.Close()
		},
	})
	return client
}
