package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const keyExportSessionLock = "export:lock:%s"

// Deletes the lock only while it still carries the caller's token, so an
// export that outlived its ttl cannot release a newer export's lock.
const releaseIfOwnerScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var errEmptySessionID = errors.New("ratelimit: empty session id")

// exportLock marks one session as exporting. The ttl bounds how long a crashed
// export can block the session.
type exportLock struct {
	client  *redis.Client
	release *redis.Script
	ttl     time.Duration
}

func newExportLock(client *redis.Client, ttl time.Duration) (*exportLock, error) {
	if client == nil {
		return nil, errors.New("ratelimit: export lock needs a redis client")
	}
	if ttl <= 0 {
		return nil, errors.New("export concurrency ttl must be positive")
	}
	return &exportLock{
		client:  client,
		release: redis.NewScript(releaseIfOwnerScript),
		ttl:     ttl,
	}, nil
}

func exportLockKey(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", errEmptySessionID
	}
	return fmt.Sprintf(keyExportSessionLock, sessionID), nil
}

// Acquire returns a release token, or ok=false while another export of the
// session holds the lock.
func (l *exportLock) Acquire(ctx context.Context, sessionID string) (token string, ok bool, err error) {
	key, err := exportLockKey(sessionID)
	if err != nil {
		return "", false, err
	}
	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Release frees the session if token still owns it. A lock that already
// expired is not an error.
func (l *exportLock) Release(ctx context.Context, sessionID, token string) error {
	if token == "" {
		return nil
	}
	key, err := exportLockKey(sessionID)
	if err != nil {
		return err
	}
	return l.release.Run(ctx, l.client, []string{key}, token).Err()
}
