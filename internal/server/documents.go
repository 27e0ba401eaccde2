package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/format"
	"github.com/smallbiznis/invoicer/internal/invoice/render"
	obscontext "github.com/smallbiznis/invoicer/internal/observability/context"
	"github.com/smallbiznis/invoicer/internal/observability/logger"
	"github.com/smallbiznis/invoicer/internal/providers/storage"
	"go.uber.org/zap"
)

const (
	exportFormatRaster   = "raster"
	exportFormatDocument = "document"
	exportFormatReceipt  = "receipt"

	headerArchiveKey = "X-Archive-Key"
)

func (s *Server) PreviewSession(c *gin.Context) {
	inv, err := s.sessions.Snapshot(c.Request.Context(), sessionIDParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if s.renderer == nil {
		AbortWithError(c, invoicedomain.ErrRendererNotConfigured)
		return
	}

	html, err := s.renderer.RenderHTML(render.RenderInput{Invoice: inv, Theme: s.theme()})
	if err != nil {
		AbortWithError(c, fmt.Errorf("render preview: %w", err))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// ExportSession serves the rasterized single-page PDF of the preview and
// archives a copy when storage is enabled.
func (s *Server) ExportSession(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	inv, err := s.sessions.Snapshot(ctx, sessionIDParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	export, err := s.exporter.Export(ctx, inv)
	s.observeExport(c, exportFormatRaster, start, err)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.archive.Enabled() {
		key := storage.ObjectKey(s.cfg.Storage.Prefix, inv.InvoiceNumber, s.clock.Now())
		obj, err := s.archive.Put(ctx, key, export.ContentType, export.Data)
		if err != nil {
			// The download still succeeds; archiving is best effort.
			logger.FromContext(ctx).Warn("invoice export archive failed",
				zap.String("key", key),
				zap.Error(err),
			)
		} else {
			c.Header(headerArchiveKey, obj.Key)
		}
	}

	writeAttachment(c, export.Filename, export.ContentType, export.Data)
}

// SessionDocument serves the structured PDF; paid invoices get the receipt layout.
func (s *Server) SessionDocument(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	inv, err := s.sessions.Snapshot(ctx, sessionIDParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var doc io.Reader
	kind := exportFormatDocument
	filename := format.ExportFilename(inv.InvoiceNumber)
	if inv.PaymentStatus == invoicedomain.PaymentStatusPaid {
		kind = exportFormatReceipt
		doc, err = s.documents.GenerateReceipt(ctx, inv)
		filename = "receipt-" + strings.TrimPrefix(filename, "invoice-")
	} else {
		doc, err = s.documents.GenerateInvoice(ctx, inv)
	}
	if err == nil && doc == nil {
		err = invoicedomain.ErrRendererNotConfigured
	}

	var data []byte
	if err == nil {
		data, err = io.ReadAll(doc)
	}
	s.observeExport(c, kind, start, err)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeAttachment(c, filename, "application/pdf", data)
}

func (s *Server) observeExport(c *gin.Context, kind string, start time.Time, err error) {
	c.Set(obscontext.KeyExportFormat, kind)
	s.sessionMetrics.ObserveExport(kind, time.Since(start), err)
	s.obsMetrics.RecordExport(c.Request.Context(), kind, err)
}

func writeAttachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, contentType, data)
}
