// Package qualification decides whether a shopper should be offered a
// sweepstakes entry for a cart or order total. It never writes.
package qualification

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/colondancer/raffle-bee/internal/periods"
	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

// Decision is the outcome of evaluating a candidate amount. ShowBanner=false
// means the offer must not render at all, which is distinct from an eligible
// shopper who has not reached the threshold yet.
type Decision struct {
	ShowBanner  bool
	Qualified   bool
	Threshold   decimal.Decimal
	PrizeAmount decimal.Decimal
	CartTotal   decimal.Decimal
}

// Evaluate applies the qualification rules to a merchant and candidate amount.
// The boundary is inclusive: an amount equal to the threshold qualifies.
func Evaluate(merchant *models.Merchant, candidate, prize decimal.Decimal) Decision {
	if !merchant.SweepstakesEnabled() {
		return Decision{CartTotal: candidate}
	}
	return Decision{
		ShowBanner:  true,
		Qualified:   candidate.GreaterThanOrEqual(merchant.Threshold),
		Threshold:   merchant.Threshold,
		PrizeAmount: prize,
		CartTotal:   candidate,
	}
}

type merchantLookup interface {
	Lookup(ctx context.Context, shopDomain string) (*models.Merchant, error)
}

type prizeDisplay interface {
	DisplayAmount(ctx context.Context, period string) (decimal.Decimal, error)
}

// ServiceParams groups dependencies for the evaluator service.
type ServiceParams struct {
	Merchants merchantLookup
	Pool      prizeDisplay
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service answers cart checks for the storefront banner.
type Service struct {
	merchants merchantLookup
	pool      prizeDisplay
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the evaluator service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Merchants == nil {
		return nil, errors.New("merchant lookup is required")
	}
	if params.Pool == nil {
		return nil, errors.New("prize pool is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		merchants: params.Merchants,
		pool:      params.Pool,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// CartCheck evaluates a cart total for a shop. Failures are logged and
// answered with a hidden banner.
func (s *Service) CartCheck(ctx context.Context, shopDomain string, cartTotal decimal.Decimal) Decision {
	ctx = s.logg.WithShopDomain(ctx, shopDomain)
	hidden := Decision{CartTotal: cartTotal}

	merchant, err := s.merchants.Lookup(ctx, shopDomain)
	if err != nil {
		s.logg.Error(ctx, "cart check merchant lookup failed", err)
		return hidden
	}
	if !merchant.SweepstakesEnabled() {
		return hidden
	}

	prize, err := s.pool.DisplayAmount(ctx, periods.Current(s.now()))
	if err != nil {
		s.logg.Error(ctx, "cart check prize lookup failed", err)
		return hidden
	}
	return Evaluate(merchant, cartTotal, prize)
}
