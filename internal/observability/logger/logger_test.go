package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/invoicer/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithSessionID(ctx, "42")

	WithContext(ctx, zap.New(core)).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "42", fields["session_id"])
	assert.Equal(t, "", fields["trace_id"])
}

func TestWithContextOmitsMissingSession(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	WithContext(context.Background(), zap.New(core)).Info("hello")

	_, ok := logs.All()[0].ContextMap()["session_id"]
	assert.False(t, ok)
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(err error) (string, string) { return "invalid_request", err.Error() },
	}))
	r.POST("/api/sessions/:id/intents", func(c *gin.Context) {
		c.Set(obscontext.KeyIntentKind, "set_field")
		_ = c.Error(errors.New("unknown_field"))
		c.Status(http.StatusBadRequest)
	})
	r.GET("/api/sessions/:id", func(c *gin.Context) {
		assert.Equal(t, "7", obscontext.SessionIDFromContext(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/7", nil)
	req.Header.Set("X-Request-Id", "abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-Id"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/sessions/7/intents", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "set_field", entries[1].ContextMap()["intent_kind"])
	assert.Equal(t, "unknown_field", entries[1].ContextMap()["error_code"])
}

func TestGinMiddlewareTagsExports(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(err error) (string, string) { return "rate_limited", err.Error() },
	}))
	r.GET("/api/sessions/:id/export", func(c *gin.Context) {
		c.Set(obscontext.KeyExportFormat, "raster")
		if c.Query("again") != "" {
			_ = c.Error(errors.New("export_in_progress"))
			c.Status(http.StatusTooManyRequests)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sessions/3/export", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sessions/3/export?again=1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "raster", entries[0].ContextMap()["export_format"])
	assert.Equal(t, "3", entries[0].ContextMap()["session_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "export_in_progress", entries[1].ContextMap()["error_code"])
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
	assert.NotContains(t, entries[2].ContextMap(), "export_format")
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, zapcore.ErrorLevel, requestLevel(routeExport, http.StatusInternalServerError, ""))
	assert.Equal(t, zapcore.DebugLevel, requestLevel(routeIntent, http.StatusBadRequest, "invalid_request"))
	assert.Equal(t, zapcore.InfoLevel, requestLevel(routeIntent, http.StatusNotFound, "not_found"))
	assert.Equal(t, zapcore.WarnLevel, requestLevel(routeExport, http.StatusTooManyRequests, "rate_limited"))
	assert.Equal(t, zapcore.InfoLevel, requestLevel(routeOther, http.StatusTooManyRequests, "rate_limited"))
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("SELECT name FROM invoice_templates"))
	assert.Equal(t, "UPSERT", operationFromSQL(`INSERT INTO "invoice_templates" VALUES (1) ON CONFLICT ("name") DO UPDATE SET "snapshot"="excluded"."snapshot"`))
	assert.Equal(t, "INSERT", operationFromSQL("INSERT INTO invoice_templates VALUES (1)"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewDebugLogger(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := New(nil, Config{Level: "debug", Format: "console", Debug: true})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.Same(t, log, zap.L())
}
