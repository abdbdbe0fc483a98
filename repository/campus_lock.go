package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const campusLockPrefix = "asset_import:lock:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisCampusLocker is a single-instance Redis lock keyed by campus id.
// Only the holder's token can release it.
type RedisCampusLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCampusLocker(rdb *redis.Client, ttl time.Duration) *RedisCampusLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCampusLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisCampusLocker) Acquire(ctx context.Context, campusID string) (func(context.Context) error, error) {
	key := campusLockPrefix + campusID
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire campus lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release campus lock: %w", err)
		}
		return nil
	}
	return release, nil
}
