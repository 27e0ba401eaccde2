package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/render"
	templatedomain "github.com/smallbiznis/invoicer/internal/invoicetemplate/domain"
	"github.com/smallbiznis/invoicer/internal/observability"
	obsmiddleware "github.com/smallbiznis/invoicer/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicer/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicer/internal/observability/tracing"
	"github.com/smallbiznis/invoicer/internal/providers/pdf"
	"github.com/smallbiznis/invoicer/internal/providers/storage"
	"github.com/smallbiznis/invoicer/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.Middleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if obsCfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	clock  clock.Clock

	sessions    invoicedomain.Service
	templates   templatedomain.Service
	renderer    render.Renderer
	defaults    *config.InvoiceDefaultsHolder
	exporter    pdf.Exporter
	documents   pdf.Provider
	archive     storage.Archive
	exportLimit *ratelimit.ExportLimiter

	sessionMetrics *obsmetrics.SessionMetrics
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Log       *zap.Logger
	Clock     clock.Clock
	Sessions  invoicedomain.Service
	Templates templatedomain.Service
	Renderer  render.Renderer
	Defaults  *config.InvoiceDefaultsHolder
	Exporter  pdf.Exporter
	Documents pdf.Provider
	Archive   storage.Archive `optional:"true"`

	ExportLimiter  *ratelimit.ExportLimiter   `optional:"true"`
	SessionMetrics *obsmetrics.SessionMetrics `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	archive := p.Archive
	if archive == nil {
		archive = storage.NoopArchive{}
	}

	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http"),
		clock:          p.Clock,
		sessions:       p.Sessions,
		templates:      p.Templates,
		renderer:       p.Renderer,
		defaults:       p.Defaults,
		exporter:       p.Exporter,
		documents:      p.Documents,
		archive:        archive,
		exportLimit:    p.ExportLimiter,
		sessionMetrics: p.SessionMetrics,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Sessions --------
	api.POST("/sessions", s.CreateSession)
	api.GET("/sessions/:id", s.GetSession)
	api.DELETE("/sessions/:id", s.DeleteSession)
	api.POST("/sessions/:id/intents", s.ApplyIntent)
	api.POST("/sessions/:id/logo", s.UploadLogo)

	// -------- Documents --------
	api.GET("/sessions/:id/preview", s.PreviewSession)
	api.GET("/sessions/:id/export", s.ExportRateLimit(), s.ExportSession)
	api.GET("/sessions/:id/document", s.SessionDocument)

	// -------- Templates --------
	api.GET("/templates", s.ListTemplates)
	api.PUT("/templates/:name", s.SaveTemplate)
	api.POST("/sessions/:id/templates/:name/load", s.LoadTemplate)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) theme() render.Theme {
	if s.defaults == nil {
		return render.Theme{}
	}
	theme := s.defaults.Get().Theme
	return render.Theme{PrimaryColor: theme.PrimaryColor, FontFamily: theme.FontFamily}
}
