package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultNotificationTTL = 24 * time.Hour

// NotificationGuard records payments whose notifications reached a final outcome.
type NotificationGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewNotificationGuard(client *redis.Client, ttl time.Duration) *NotificationGuard {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}

	return &NotificationGuard{
		client: client,
		ttl:    ttl,
	}
}

func (g *NotificationGuard) Seen(ctx context.Context, ticketID, paymentID string) (bool, error) {
	n, err := g.client.Exists(ctx, notificationKey(ticketID, paymentID)).Result()
	if err != nil {
		return false, fmt.Errorf("g.client.Exists -> %w", err)
	}

	return n > 0, nil
}

func (g *NotificationGuard) Remember(ctx context.Context, ticketID, paymentID string) error {
	if err := g.client.Set(ctx, notificationKey(ticketID, paymentID), time.Now().Unix(), g.ttl).Err(); err != nil {
		return fmt.Errorf("g.client.Set -> %w", err)
	}

	return nil
}

func notificationKey(ticketID, paymentID string) string {
	return fmt.Sprintf("notify:%s:%s", ticketID, paymentID)
}
