package expiration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const lockKey = "sweep:expiration:lock"

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker keeps two sweeps from running at the same time.
type Locker interface {
	// Acquire returns a release func when the lock was taken.
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

// RedisLocker is a SET NX lock with a TTL as the crash fallback.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker returns nil for a nil client so the sweep runs unlocked.
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
			log.Warn().Err(err).Msg("Failed to release sweep lock")
		}
	}
	return release, true, nil
}
