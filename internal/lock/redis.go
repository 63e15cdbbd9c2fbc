package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix    = "lock:"
	pollInterval = 50 * time.Millisecond
)

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared across processes, built on SET NX with a TTL.
// If Redis itself is unreachable it falls back to the in-process locker
// so that triage keeps working on a single instance.
type Redis struct {
	rdb      *redis.Client
	ttl      time.Duration
	fallback *Local
	logger   *zap.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Redis{
		rdb:      rdb,
		ttl:      ttl,
		fallback: NewLocal(),
		logger:   logger,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrNotAcquired, ctx.Err())
			}
			r.logger.Warn("Redis lock unavailable, using in-process lock",
				zap.String("key", key),
				zap.Error(err),
			)
			return r.fallback.Lock(ctx, key)
		}
		if ok {
			return func() {
				// release must not depend on the caller's context still being alive
				relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(relCtx, r.rdb, []string{redisKey}, token).Err(); err != nil {
					r.logger.Warn("Failed to release redis lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}
