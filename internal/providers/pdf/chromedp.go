package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultScale         = 1.5
	// A4 at 96 dpi.
	viewportWidth  = 794
	viewportHeight = 1123
)

type ChromeConfig struct {
	// RemoteURL points at a running Chrome DevTools endpoint. Empty launches a local browser.
	RemoteURL string
	NoSandbox bool
	Timeout   time.Duration
	Scale     float64
}

// ChromeRasterizer screenshots HTML with headless Chrome.
type ChromeRasterizer struct {
	cfg         ChromeConfig
	log         *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

func NewChromeRasterizer(cfg ChromeConfig, log *zap.Logger) *ChromeRasterizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultChromeTimeout
	}
	if cfg.Scale <= 0 {
		cfg.Scale = defaultScale
	}
	if log == nil {
		log = zap.NewNop()
	}

	r := &ChromeRasterizer{cfg: cfg, log: log.Named("pdf.chrome")}
	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

func (r *ChromeRasterizer) Rasterize(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyRaster
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.log.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// stop the browser tab when the caller gives up
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	var png []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight, chromedp.EmulateScale(r.cfg.Scale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("rasterize timed out after %v: %w", r.cfg.Timeout, ctx.Err())
		}
		r.log.Error("chromedp rasterize failed", zap.Error(err))
		return nil, err
	}
	if len(png) == 0 {
		return nil, ErrEmptyRaster
	}
	return png, nil
}

// Close shuts down the browser allocator.
func (r *ChromeRasterizer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}
