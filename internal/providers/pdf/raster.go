package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/format"
	"github.com/smallbiznis/invoicer/internal/invoice/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const previewImageName = "invoice-preview"

var ErrEmptyRaster = errors.New("empty_raster")

// RasterExporter renders the HTML preview, rasterizes it and places the image
// on a single A4 page.
type RasterExporter struct {
	log        *zap.Logger
	renderer   render.Renderer
	rasterizer Rasterizer
	theme      func() render.Theme
}

func NewRasterExporter(log *zap.Logger, renderer render.Renderer, rasterizer Rasterizer, theme func() render.Theme) *RasterExporter {
	if log == nil {
		log = zap.NewNop()
	}
	if theme == nil {
		theme = func() render.Theme { return render.Theme{} }
	}
	return &RasterExporter{
		log:        log.Named("pdf.exporter"),
		renderer:   renderer,
		rasterizer: rasterizer,
		theme:      theme,
	}
}

func (e *RasterExporter) Export(ctx context.Context, inv domain.Invoice) (Export, error) {
	ctx, span := otel.Tracer("invoicer/pdf").Start(ctx, "pdf.export")
	defer span.End()
	span.SetAttributes(
		attribute.String("invoice.currency", string(inv.Currency)),
		attribute.Int("invoice.items", len(inv.Items)),
	)

	if e.renderer == nil || e.rasterizer == nil {
		return Export{}, domain.ErrRendererNotConfigured
	}

	html, err := e.renderer.RenderHTML(render.RenderInput{Invoice: inv, Theme: e.theme()})
	if err != nil {
		span.SetStatus(codes.Error, "render failed")
		return Export{}, fmt.Errorf("render preview: %w", err)
	}

	png, err := e.rasterizer.Rasterize(ctx, html)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rasterize failed")
		return Export{}, fmt.Errorf("rasterize preview: %w", err)
	}

	data, err := ImageToPDF(png, inv.InvoiceNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compose failed")
		return Export{}, err
	}

	span.SetAttributes(attribute.Int("pdf.bytes", len(data)))
	e.log.Debug("invoice exported",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("bytes", len(data)),
	)

	return Export{
		Filename:    format.ExportFilename(inv.InvoiceNumber),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// ImageToPDF places a PNG on one portrait A4 page, scaled to fit and centered.
func ImageToPDF(png []byte, title string) ([]byte, error) {
	if len(png) == 0 {
		return nil, ErrEmptyRaster
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}

	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pageWidthMM, Ht: pageHeightMM},
	})
	doc.SetTitle(title, true)
	doc.SetCreator("invoicer", true)
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader(previewImageName, opts, bytes.NewReader(png))

	place := FitToPage(float64(cfg.Width), float64(cfg.Height), pageWidthMM, pageHeightMM)
	doc.ImageOptions(previewImageName, place.X, place.Y, place.Width, place.Height, false, opts, 0, "")

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("compose pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
