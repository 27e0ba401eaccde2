package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicer/internal/config"
)

const keyExportSession = "export:session:%s"

// ExportLimiter throttles PDF exports per session and allows only one export
// of a session to run at a time.
type ExportLimiter struct {
	bucket *TokenBucket
	lock   *exportLock

	rate  float64
	burst int
}

// NewExportLimiter returns nil when rate limiting is disabled.
func NewExportLimiter(cfg config.Config, client *redis.Client) (*ExportLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit redis client is required")
	}
	if limitCfg.ExportRate <= 0 || limitCfg.ExportBurst <= 0 {
		return nil, errors.New("export rate limit must be positive")
	}

	lock, err := newExportLock(client, time.Duration(limitCfg.ExportConcurrencyTTLSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	return &ExportLimiter{
		bucket: NewTokenBucket(client),
		lock:   lock,
		rate:   limitCfg.ExportRate,
		burst:  limitCfg.ExportBurst,
	}, nil
}

func (l *ExportLimiter) Enabled() bool {
	return l != nil
}

// AllowSession takes one token from the session's bucket.
func (l *ExportLimiter) AllowSession(ctx context.Context, sessionID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Result{}, errEmptySessionID
	}
	return l.bucket.Take(ctx, fmt.Sprintf(keyExportSession, sessionID), l.rate, l.burst)
}

// TryLockSession returns a release token when no other export of the session
// is running.
func (l *ExportLimiter) TryLockSession(ctx context.Context, sessionID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.lock.Acquire(ctx, sessionID)
}

func (l *ExportLimiter) ReleaseSession(ctx context.Context, sessionID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.lock.Release(ctx, sessionID, token)
}
