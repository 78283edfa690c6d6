package roomlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries this holder's token, so an
// expired lock taken over by another process is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes a RedisLocker.
type RedisConfig struct {
	// TTL bounds how long a crashed holder keeps a room locked.
	TTL time.Duration
	// RetryInterval is the pause between acquisition attempts.
	RetryInterval time.Duration
	// Prefix namespaces lock keys.
	Prefix string
}

// RedisLocker serializes rooms across processes sharing one Redis.
type RedisLocker struct {
	rdb    *redis.Client
	cfg    RedisConfig
	logger *slog.Logger
}

// NewRedisLocker wraps rdb. Zero config fields take defaults.
func NewRedisLocker(rdb *redis.Client, cfg RedisConfig, logger *slog.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 25 * time.Millisecond
	}
	cfg.Prefix = strings.TrimSpace(cfg.Prefix)
	if cfg.Prefix == "" {
		cfg.Prefix = "roombooking:lock"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{rdb: rdb, cfg: cfg, logger: logger.With("component", "roomlock")}
}

func (l *RedisLocker) key(roomID string) string {
	return l.cfg.Prefix + ":" + roomID
}

// Lock retries SET NX PX until it succeeds, Redis fails, or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, roomID string) (func(), error) {
	key := l.key(roomID)
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Join(ErrNotAcquired, ctxErr)
			}
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even when the caller's context has already ended.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.rdb, []string{key}, token).Err(); err != nil {
				l.logger.WarnContext(ctx, "failed to release room lock", "room_id", roomID, "error", err)
			}
		})
	}, nil
}
