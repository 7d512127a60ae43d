package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client, err := OpenRedis(RedisConfig{Addr: addr})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestNotificationGuard(t *testing.T) {
	client := getRedisClient(t)
	guard := NewNotificationGuard(client, time.Minute)
	ctx := context.Background()

	ticketID, paymentID := uuid.NewString(), "2255"
	t.Cleanup(func() { client.Del(ctx, notificationKey(ticketID, paymentID)) })

	seen, err := guard.Seen(ctx, ticketID, paymentID)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, guard.Remember(ctx, ticketID, paymentID))

	seen, err = guard.Seen(ctx, ticketID, paymentID)
	require.NoError(t, err)
	assert.True(t, seen)

	ttl, err := client.TTL(ctx, notificationKey(ticketID, paymentID)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}

func TestNotificationKey(t *testing.T) {
	assert.Equal(t, "notify:t1:2255", notificationKey("t1", "2255"))
}
