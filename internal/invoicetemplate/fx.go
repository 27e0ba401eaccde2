package invoicetemplate

import (
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoicetemplate/repository"
	"github.com/smallbiznis/invoicer/internal/invoicetemplate/service"
	"go.uber.org/fx"
)

func Module(cfg config.Config) fx.Option {
	return fx.Module("invoicetemplate.service",
		repository.Options(cfg.Templates.Backend),
		fx.Provide(service.NewService),
	)
}
