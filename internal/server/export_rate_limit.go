package server

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicer/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicer/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	rateLimitReasonSessionRate        = "session-rate"
	rateLimitReasonSessionConcurrency = "session-concurrency"
)

// ExportRateLimit throttles exports per session and rejects a second export
// while one is still running. It is a no-op without a configured limiter.
func (s *Server) ExportRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.exportLimit == nil || !s.exportLimit.Enabled() {
			c.Next()
			return
		}

		sessionID := sessionIDParam(c)
		endpoint := normalizeRateLimitEndpoint(c)
		ctx := c.Request.Context()

		result, err := s.exportLimit.AllowSession(ctx, sessionID)
		if err != nil {
			logger.FromContext(ctx).Warn("export rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			denyExportRateLimit(c, endpoint, rateLimitReasonSessionRate, max(retryAfter, 1), s.obsMetrics)
			return
		}

		lockToken, acquired, err := s.exportLimit.TryLockSession(ctx, sessionID)
		if err != nil {
			logger.FromContext(ctx).Warn("export concurrency lock failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !acquired {
			denyExportRateLimit(c, endpoint, rateLimitReasonSessionConcurrency, 1, s.obsMetrics)
			return
		}
		defer func() {
			// The request context may already be canceled.
			if err := s.exportLimit.ReleaseSession(context.WithoutCancel(ctx), sessionID, lockToken); err != nil {
				logger.FromContext(ctx).Warn("export concurrency unlock failed", zap.Error(err))
			}
		}()

		c.Next()
	}
}

func denyExportRateLimit(c *gin.Context, endpoint, reason string, retryAfter int, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("export rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
