// Package prizepool is the quarterly prize pool ledger. Pools only grow: a
// contribution is an atomic increment-or-create keyed by period, and an
// order's contribution is applied at most once.
package prizepool

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/colondancer/raffle-bee/internal/periods"
	"github.com/colondancer/raffle-bee/pkg/db/models"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
	"github.com/colondancer/raffle-bee/pkg/metrics"
)

// DefaultDisplayAmount is the cart banner prize when a period has no pool
// yet. It is never stored.
var DefaultDisplayAmount = decimal.NewFromInt(1000)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PoolState is the stored state of one period's pool. A missing pool reads
// as zero and inactive.
type PoolState struct {
	Period        string          `json:"period"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	IsActive      bool            `json:"isActive"`
	Exists        bool            `json:"-"`
}

// Summary is the storefront view of the current period's pool.
type Summary struct {
	Period          string          `json:"period"`
	CurrentAmount   decimal.Decimal `json:"currentAmount"`
	FormattedAmount string          `json:"formattedAmount"`
	NextDrawing     string          `json:"nextDrawing"`
	PeriodLabel     string          `json:"periodLabel"`
}

// OrderContribution is the result of applying one order's share.
type OrderContribution struct {
	Applied bool
	Total   decimal.Decimal
}

// ServiceParams groups dependencies for the ledger.
type ServiceParams struct {
	Repo           Repository
	TxRunner       txRunner
	Logger         *logger.Logger
	Metrics        *metrics.SweepstakesMetrics
	DisplayDefault decimal.Decimal
	Now            func() time.Time
}

// Service is the prize pool ledger.
type Service struct {
	repo           Repository
	tx             txRunner
	logg           *logger.Logger
	metrics        *metrics.SweepstakesMetrics
	displayDefault decimal.Decimal
	now            func() time.Time
}

// NewService builds the ledger.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.TxRunner == nil {
		return nil, errors.New("tx runner is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	display := params.DisplayDefault
	if display.IsZero() {
		display = DefaultDisplayAmount
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:           params.Repo,
		tx:             params.TxRunner,
		logg:           params.Logger,
		metrics:        params.Metrics,
		displayDefault: display,
		now:            now,
	}, nil
}

// ApplyContribution atomically adds amount to the period's pool and returns
// the new total.
func (s *Service) ApplyContribution(ctx context.Context, period string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := validateContribution(period, amount); err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		total, txErr = s.increment(ctx, s.repo.WithTx(tx), period, amount)
		return txErr
	})
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply prize pool contribution")
	}
	s.metrics.ObserveContribution(period, amount)
	return total, nil
}

// ApplyOrderContribution applies an order's share inside the caller's
// transaction. A repeated call for the same order leaves the pool unchanged
// and reports Applied=false.
func (s *Service) ApplyOrderContribution(ctx context.Context, tx *gorm.DB, orderID, period string, amount decimal.Decimal) (OrderContribution, error) {
	if orderID == "" {
		return OrderContribution{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if err := validateContribution(period, amount); err != nil {
		return OrderContribution{}, err
	}
	repo := s.repo.WithTx(tx)

	inserted, err := repo.RecordContribution(ctx, &models.PrizePoolContribution{
		OrderID: orderID,
		Period:  period,
		Amount:  amount,
	})
	if err != nil {
		return OrderContribution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record contribution")
	}
	if !inserted {
		state, err := s.readWith(ctx, repo, period)
		if err != nil {
			return OrderContribution{}, err
		}
		return OrderContribution{Applied: false, Total: state.CurrentAmount}, nil
	}

	total, err := s.increment(ctx, repo, period, amount)
	if err != nil {
		return OrderContribution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply prize pool contribution")
	}
	return OrderContribution{Applied: true, Total: total}, nil
}

// RecordApplied publishes metrics for a contribution whose transaction
// committed.
func (s *Service) RecordApplied(period string, amount decimal.Decimal) {
	s.metrics.ObserveContribution(period, amount)
}

func (s *Service) increment(ctx context.Context, repo Repository, period string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := repo.Increment(ctx, period, amount); err != nil {
		return decimal.Zero, err
	}
	pool, err := repo.FindByPeriod(ctx, period)
	if err != nil {
		return decimal.Zero, err
	}
	return pool.CurrentAmount.Round(2), nil
}

// ReadPool returns the stored state of a period's pool.
func (s *Service) ReadPool(ctx context.Context, period string) (PoolState, error) {
	if _, _, err := periods.Parse(period); err != nil {
		return PoolState{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period")
	}
	return s.readWith(ctx, s.repo, period)
}

func (s *Service) readWith(ctx context.Context, repo Repository, period string) (PoolState, error) {
	pool, err := repo.FindByPeriod(ctx, period)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PoolState{Period: period, CurrentAmount: decimal.Zero}, nil
		}
		return PoolState{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read prize pool")
	}
	return PoolState{
		Period:        pool.Period,
		CurrentAmount: pool.CurrentAmount.Round(2),
		IsActive:      pool.IsActive,
		Exists:        true,
	}, nil
}

// DisplayAmount is the prize shown to shoppers for a period: the pool's
// amount, or the display default when no pool exists yet.
func (s *Service) DisplayAmount(ctx context.Context, period string) (decimal.Decimal, error) {
	state, err := s.ReadPool(ctx, period)
	if err != nil {
		return decimal.Zero, err
	}
	if !state.Exists {
		return s.displayDefault, nil
	}
	return state.CurrentAmount, nil
}

// CurrentSummary describes the pool of the period containing now. The
// amount is what has been contributed so far; a period without a pool
// reports zero.
func (s *Service) CurrentSummary(ctx context.Context) (*Summary, error) {
	period := periods.Current(s.now())
	state, err := s.ReadPool(ctx, period)
	if err != nil {
		return nil, err
	}
	amount := state.CurrentAmount
	end, err := periods.End(period)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "period end")
	}
	return &Summary{
		Period:          period,
		CurrentAmount:   amount,
		FormattedAmount: FormatUSD(amount),
		NextDrawing:     end.Format(time.DateOnly),
		PeriodLabel:     periods.Label(period),
	}, nil
}

func validateContribution(period string, amount decimal.Decimal) error {
	if _, _, err := periods.Parse(period); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period")
	}
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "contribution must be non-negative")
	}
	return nil
}
