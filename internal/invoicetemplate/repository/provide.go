package repository

import (
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/migration"
	"github.com/smallbiznis/invoicer/pkg/db"
	"go.uber.org/fx"
)

// Options wires the repository for the configured template backend. The
// database and its migrations are only pulled in when templates live there.
func Options(backend string) fx.Option {
	switch backend {
	case config.TemplateBackendDatabase:
		return fx.Options(
			db.Module,
			migration.Module,
			fx.Provide(NewGormRepository),
		)
	case config.TemplateBackendRedis:
		return fx.Provide(NewRedisRepository)
	default:
		return fx.Provide(NewMemoryRepository)
	}
}
