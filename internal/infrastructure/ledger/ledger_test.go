package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLedger_AlwaysFirstSeen(t *testing.T) {
	var l NopLedger
	for i := 0; i < 3; i++ {
		first, err := l.FirstSeen(context.Background(), "b54557e4-bdd9-4b37-8a5f-bf7d70bcd043")
		require.NoError(t, err)
		assert.True(t, first)
	}
}

func TestDeliveryKey(t *testing.T) {
	assert.Equal(t, "webhook:delivery:abc-123", deliveryKey("abc-123"))
}

func TestRedisLedger_UnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	first, err := NewRedisLedger(client, time.Hour).FirstSeen(context.Background(), "abc-123")

	assert.Error(t, err)
	assert.False(t, first)
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}
