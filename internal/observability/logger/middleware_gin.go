package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/invoicer/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug           bool
	ErrorClassifier func(err error) (string, string)
}

type routeClass int

const (
	routeOther routeClass = iota
	routeOps
	routeIntent
	routeExport
)

var routeClasses = map[string]routeClass{
	"/health":                                routeOps,
	"/metrics":                               routeOps,
	"/api/sessions/:id/intents":              routeIntent,
	"/api/sessions/:id/templates/:name/load": routeIntent,
	"/api/sessions/:id/preview":              routeExport,
	"/api/sessions/:id/export":               routeExport,
	"/api/sessions/:id/document":             routeExport,
}

// GinMiddleware writes one http_request line per request, tagged with the
// session, and the intent kind or export format the handler recorded.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := ensureRequestID(c)

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		ctx = obscontext.WithSessionID(ctx, strings.TrimSpace(c.Param("id")))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int64("bytes_in", max(0, c.Request.ContentLength)),
			zap.Int("bytes_out", max(0, c.Writer.Size())),
		}
		if kind := strings.TrimSpace(c.GetString(obscontext.KeyIntentKind)); kind != "" {
			fields = append(fields, zap.String("intent_kind", kind))
		}
		if format := strings.TrimSpace(c.GetString(obscontext.KeyExportFormat)); format != "" {
			fields = append(fields, zap.String("export_format", format))
		}

		var errorType, errorCode string
		if last := c.Errors.Last(); last != nil {
			if cfg.ErrorClassifier != nil {
				errorType, errorCode = cfg.ErrorClassifier(last.Err)
			}
			fields = append(fields,
				zap.String("error_type", errorType),
				zap.String("error_code", errorCode),
			)
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		level := requestLevel(routeClasses[route], status, errorType)
		if ce := FromContext(c.Request.Context()).Check(level, "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func ensureRequestID(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
	if requestID == "" {
		requestID = strings.TrimSpace(c.GetString("request_id"))
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set("request_id", requestID)
	c.Header("X-Request-Id", requestID)
	return requestID
}

// requestLevel keeps routine traffic out of info. Editors send an intent per
// keystroke, so rejected input is debug; a throttled export is a warning.
func requestLevel(class routeClass, status int, errorType string) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case class == routeOps:
		return zapcore.DebugLevel
	case class == routeIntent && status >= http.StatusBadRequest && errorType == "invalid_request":
		return zapcore.DebugLevel
	case class == routeExport && status == http.StatusTooManyRequests:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
