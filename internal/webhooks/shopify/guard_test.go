package shopifywebhook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colondancer/raffle-bee/internal/webhooks/shopify/webhooktest"
)

func TestDeliveryGuardMarksOncePerShop(t *testing.T) {
	store := webhooktest.NewStore()
	guard, err := NewDeliveryGuard(store, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "a.myshopify.com", "wh-1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "a.myshopify.com", "wh-1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = guard.CheckAndMark(ctx, "b.myshopify.com", "wh-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, guard.Release(ctx, "a.myshopify.com", "wh-1"))
	seen, err = guard.CheckAndMark(ctx, "a.myshopify.com", "wh-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestDeliveryGuardValidation(t *testing.T) {
	_, err := NewDeliveryGuard(nil, time.Hour)
	require.Error(t, err)
	_, err = NewDeliveryGuard(webhooktest.NewStore(), -time.Second)
	require.Error(t, err)

	guard, err := NewDeliveryGuard(webhooktest.NewStore(), 0)
	require.NoError(t, err)
	_, err = guard.CheckAndMark(context.Background(), "a.myshopify.com", "")
	require.Error(t, err)
}
