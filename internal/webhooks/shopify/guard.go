package shopifywebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colondancer/raffle-bee/pkg/redis"
)

// DeliveryGuard drops repeated deliveries of the same Shopify webhook id.
// It only saves work: lifecycle writes stay idempotent without it.
type DeliveryGuard struct {
	store redis.DeliveryStore
	ttl   time.Duration
}

func NewDeliveryGuard(store redis.DeliveryStore, ttl time.Duration) (*DeliveryGuard, error) {
	if store == nil {
		return nil, errors.New("delivery store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &DeliveryGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark records the delivery and reports whether it was seen before.
func (g *DeliveryGuard) CheckAndMark(ctx context.Context, shopDomain, webhookID string) (bool, error) {
	if webhookID == "" {
		return false, errors.New("webhook id is required")
	}
	key := g.store.WebhookDeliveryKey(shopDomain, webhookID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("mark webhook delivery: %w", err)
	}
	return !set, nil
}

// Release forgets the delivery so a retry is processed again.
func (g *DeliveryGuard) Release(ctx context.Context, shopDomain, webhookID string) error {
	if webhookID == "" {
		return errors.New("webhook id is required")
	}
	return g.store.Del(ctx, g.store.WebhookDeliveryKey(shopDomain, webhookID))
}
