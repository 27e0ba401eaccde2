package pdf

import (
	"context"
	"time"

	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoice/render"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(
		New,
		render.NewRenderer,
		NewRasterizerFromConfig,
		NewExporterFromConfig,
	),
)

// NewRasterizerFromConfig returns nil when Chrome is disabled; exports then
// fail with ErrRendererNotConfigured.
func NewRasterizerFromConfig(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Rasterizer {
	if !cfg.Chrome.Enabled {
		return nil
	}

	r := NewChromeRasterizer(ChromeConfig{
		RemoteURL: cfg.Chrome.RemoteURL,
		NoSandbox: cfg.Chrome.NoSandbox,
		Timeout:   time.Duration(cfg.Chrome.TimeoutSeconds) * time.Second,
		Scale:     cfg.Chrome.Scale,
	}, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			r.Close()
			return nil
		},
	})
	return r
}

func NewExporterFromConfig(log *zap.Logger, renderer render.Renderer, rasterizer Rasterizer, defaults *config.InvoiceDefaultsHolder) Exporter {
	return NewRasterExporter(log, renderer, rasterizer, func() render.Theme {
		theme := defaults.Get().Theme
		return render.Theme{PrimaryColor: theme.PrimaryColor, FontFamily: theme.FontFamily}
	})
}
