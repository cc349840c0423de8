package balance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheKeyPrefix = "balance:"

// cache is a read-through Redis cache of Balance. A nil client disables it.
type cache struct {
	client *redis.Client
	ttl    time.Duration
}

func cacheKey(id uuid.UUID) string {
	return cacheKeyPrefix + id.String()
}

func (c *cache) get(ctx context.Context, id uuid.UUID) (*Balance, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Balance cache read failed")
		}
		return nil, false
	}
	var b Balance
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, false
	}
	return &b, true
}

func (c *cache) set(ctx context.Context, id uuid.UUID, b *Balance) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(id), raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("Balance cache write failed")
	}
}

func (c *cache) invalidate(ctx context.Context, id uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		log.Warn().Err(err).Str("subscriber_id", id.String()).Msg("Balance cache invalidation failed")
	}
}
