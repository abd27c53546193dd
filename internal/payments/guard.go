package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/dopeevents/dopeevents-backend/pkg/redis"
)

const defaultGuardTTL = 24 * time.Hour

type redisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWebhookGuard builds the redis SetNX fast-path duplicate filter for
// provider callbacks. The key is scoped to token + result code so a late
// delivery with a different code still reaches the DB transition.
func NewWebhookGuard(client *redis.Client, ttl time.Duration) WebhookGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &redisGuard{client: client, ttl: ttl}
}

func (g *redisGuard) Acquire(ctx context.Context, token string, resultCode int) (bool, error) {
	if g == nil || g.client == nil {
		return true, nil
	}
	return g.client.SetNX(ctx, g.key(token, resultCode), 1, g.ttl)
}

// Release drops the guard key so the provider's redelivery can reach the DB
// transition again after a failed settlement attempt.
func (g *redisGuard) Release(ctx context.Context, token string, resultCode int) error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Del(ctx, g.key(token, resultCode))
}

func (g *redisGuard) key(token string, resultCode int) string {
	return g.client.IdempotencyKey("mpesa_callback", fmt.Sprintf("%s:%d", token, resultCode))
}
