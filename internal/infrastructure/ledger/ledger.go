// Package ledger records webhook delivery ids so redeliveries are acknowledged
// without being handled twice.
package ledger

import (
	"context"
	"fmt"
	"time"

	"refundsafe-shopify-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

const deliveryKeyPrefix = "webhook:delivery:"

// NewRedisClient parses url and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisLedger remembers delivery ids for ttl using SET NX.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

var _ ports.DeliveryLedger = (*RedisLedger)(nil)

// FirstSeen reports whether id has not been recorded before, recording it atomically.
func (l *RedisLedger) FirstSeen(ctx context.Context, id string) (bool, error) {
	ok, err := l.client.SetNX(ctx, deliveryKey(id), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record webhook delivery: %w", err)
	}
	return ok, nil
}

func deliveryKey(id string) string {
	return deliveryKeyPrefix + id
}

// NopLedger treats every delivery as new. Used when no Redis is configured.
type NopLedger struct{}

var _ ports.DeliveryLedger = NopLedger{}

func (NopLedger) FirstSeen(context.Context, string) (bool, error) {
	return true, nil
}
