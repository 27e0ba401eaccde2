package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/invoicer/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	AttrSessionID    = attribute.Key("invoicer.session_id")
	AttrIntentKind   = attribute.Key("invoicer.intent_kind")
	AttrExportFormat = attribute.Key("invoicer.export_format")
)

// GinMiddleware opens a server span per request. Handlers name the intent
// kind or export format on the gin context; both land on the span once the
// handler returns.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("invoicer/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if id := obscontext.RequestIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if id := obscontext.SessionIDFromContext(ctx); id != "" {
			span.SetAttributes(AttrSessionID.String(id))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + c.Request.Method + " " + route)
		span.SetAttributes(SafeAttributes(invoiceAttributes(c,
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		)...)...)

		if status < http.StatusInternalServerError {
			return
		}
		if last := c.Errors.Last(); last != nil {
			if err := SafeError(last.Err); err != nil {
				span.RecordError(err)
			}
		}
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

func invoiceAttributes(c *gin.Context, attrs ...attribute.KeyValue) []attribute.KeyValue {
	if kind := strings.TrimSpace(c.GetString(obscontext.KeyIntentKind)); kind != "" {
		attrs = append(attrs, AttrIntentKind.String(kind))
	}
	if format := strings.TrimSpace(c.GetString(obscontext.KeyExportFormat)); format != "" {
		attrs = append(attrs, AttrExportFormat.String(format))
	}
	return attrs
}
