package qualification

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEvaluateNeverShowsForDisabledMerchants(t *testing.T) {
	merchants := []*models.Merchant{
		nil,
		{IsActive: false, Threshold: d("50")},
		{IsActive: true, Threshold: d("0")},
		{IsActive: true, Threshold: d("-5")},
		{IsActive: false, Threshold: d("0")},
	}
	amounts := []string{"0", "49.99", "50", "1000000"}
	for i, m := range merchants {
		for _, amount := range amounts {
			decision := Evaluate(m, d(amount), d("1000"))
			assert.False(t, decision.ShowBanner, "merchant %d amount %s", i, amount)
			assert.False(t, decision.Qualified, "merchant %d amount %s", i, amount)
		}
	}
}

func TestEvaluateThresholdBoundaryIsInclusive(t *testing.T) {
	merchant := &models.Merchant{IsActive: true, Threshold: d("50")}

	below := Evaluate(merchant, d("49.99"), d("1000"))
	assert.True(t, below.ShowBanner)
	assert.False(t, below.Qualified)

	at := Evaluate(merchant, d("50.00"), d("1000"))
	assert.True(t, at.ShowBanner)
	assert.True(t, at.Qualified)

	above := Evaluate(merchant, d("80"), d("1234.50"))
	assert.True(t, above.Qualified)
	assert.True(t, d("1234.50").Equal(above.PrizeAmount))
	assert.True(t, d("50").Equal(above.Threshold))
}

type fakeMerchants struct {
	merchant *models.Merchant
	err      error
}

func (f fakeMerchants) Lookup(context.Context, string) (*models.Merchant, error) {
	return f.merchant, f.err
}

type fakePool struct {
	amount decimal.Decimal
	err    error
	period string
}

func (f *fakePool) DisplayAmount(_ context.Context, period string) (decimal.Decimal, error) {
	f.period = period
	return f.amount, f.err
}

func newService(t *testing.T, merchants fakeMerchants, pool *fakePool) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Merchants: merchants,
		Pool:      pool,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:       func() time.Time { return time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc
}

func TestCartCheckUsesCurrentPeriodPrize(t *testing.T) {
	pool := &fakePool{amount: d("1000")}
	svc := newService(t, fakeMerchants{merchant: &models.Merchant{IsActive: true, Threshold: d("50")}}, pool)

	decision := svc.CartCheck(context.Background(), "demo.myshopify.com", d("75"))
	assert.True(t, decision.ShowBanner)
	assert.True(t, decision.Qualified)
	assert.Equal(t, "2024-Q2", pool.period)
	assert.True(t, d("1000").Equal(decision.PrizeAmount))
}

func TestCartCheckFailsSafe(t *testing.T) {
	active := &models.Merchant{IsActive: true, Threshold: d("50")}

	svc := newService(t, fakeMerchants{err: errors.New("db down")}, &fakePool{})
	assert.False(t, svc.CartCheck(context.Background(), "demo.myshopify.com", d("75")).ShowBanner)

	svc = newService(t, fakeMerchants{merchant: active}, &fakePool{err: errors.New("db down")})
	assert.False(t, svc.CartCheck(context.Background(), "demo.myshopify.com", d("75")).ShowBanner)

	svc = newService(t, fakeMerchants{}, &fakePool{})
	decision := svc.CartCheck(context.Background(), "unknown.myshopify.com", d("75"))
	assert.False(t, decision.ShowBanner)
	assert.True(t, d("75").Equal(decision.CartTotal))
}
