// Package entries owns the sweepstakes entry lifecycle: creating an entry
// when a qualifying order is paid, moving it through opt-in, opt-out and
// refund events, and routing the fee contribution into the prize pool.
package entries

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/colondancer/raffle-bee/internal/fees"
	"github.com/colondancer/raffle-bee/internal/periods"
	"github.com/colondancer/raffle-bee/internal/prizepool"
	"github.com/colondancer/raffle-bee/pkg/db"
	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/enums"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
	"github.com/colondancer/raffle-bee/pkg/metrics"
)

const defaultRecentLimit = 50

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type merchantLookup interface {
	Lookup(ctx context.Context, shopDomain string) (*models.Merchant, error)
}

type poolLedger interface {
	ApplyOrderContribution(ctx context.Context, tx *gorm.DB, orderID, period string, amount decimal.Decimal) (prizepool.OrderContribution, error)
	RecordApplied(period string, amount decimal.Decimal)
	ReadPool(ctx context.Context, period string) (prizepool.PoolState, error)
}

// ServiceParams groups dependencies for the lifecycle service.
type ServiceParams struct {
	Repo            Repository
	TxRunner        txRunner
	Merchants       merchantLookup
	Pool            poolLedger
	Logger          *logger.Logger
	Metrics         *metrics.SweepstakesMetrics
	EligibleCountry string
	RecentLimit     int
	Now             func() time.Time
}

// Service applies lifecycle events to entries.
type Service struct {
	repo            Repository
	tx              txRunner
	merchants       merchantLookup
	pool            poolLedger
	logg            *logger.Logger
	metrics         *metrics.SweepstakesMetrics
	eligibleCountry string
	recentLimit     int
	now             func() time.Time
}

// NewService builds the lifecycle service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.TxRunner == nil {
		return nil, errors.New("tx runner is required")
	}
	if params.Merchants == nil {
		return nil, errors.New("merchant lookup is required")
	}
	if params.Pool == nil {
		return nil, errors.New("prize pool ledger is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	country := strings.ToUpper(strings.TrimSpace(params.EligibleCountry))
	if country == "" {
		country = "US"
	}
	limit := params.RecentLimit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:            params.Repo,
		tx:              params.TxRunner,
		merchants:       params.Merchants,
		pool:            params.Pool,
		logg:            params.Logger,
		metrics:         params.Metrics,
		eligibleCountry: country,
		recentLimit:     limit,
		now:             now,
	}, nil
}

// OrderPaid creates a pending entry when the order qualifies. Orders that do
// not qualify, and repeated deliveries, come back as skipped outcomes.
func (s *Service) OrderPaid(ctx context.Context, event OrderPaid) (Outcome, error) {
	if err := event.Validate(); err != nil {
		return Outcome{}, err
	}
	ctx = s.logContext(ctx, event.ShopDomain, event.OrderID)
	outcome := Outcome{OrderID: event.OrderID, Previous: enums.EntryStateNone, State: enums.EntryStateNone}

	merchant, err := s.merchants.Lookup(ctx, event.ShopDomain)
	if err != nil {
		return Outcome{}, err
	}
	if reason := merchantSkipReason(merchant); reason != "" {
		return s.skip(ctx, outcome, reason), nil
	}
	if event.Subtotal.LessThan(merchant.Threshold) {
		return s.skip(ctx, outcome, SkipBelowThreshold), nil
	}
	if !strings.EqualFold(strings.TrimSpace(event.BillingCountry), s.eligibleCountry) {
		return s.skip(ctx, outcome, SkipIneligibleCountry), nil
	}

	entry := &models.Entry{
		MerchantID:    merchant.ID,
		OrderID:       event.OrderID,
		CustomerID:    event.CustomerID,
		CustomerEmail: event.CustomerEmail,
		CustomerName:  event.CustomerName,
		OrderAmount:   event.Subtotal,
		Period:        periods.Current(s.now()),
		IsActive:      false,
	}
	txn := &models.Transaction{
		MerchantID:  merchant.ID,
		OrderID:     event.OrderID,
		FeeAmount:   fees.Fee(event.Subtotal, merchant.BillingPlan),
		Status:      enums.TransactionStatusPending,
		Description: feeDescription(event),
	}

	var created bool
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		created, txErr = s.repo.WithTx(tx).CreateIfAbsent(ctx, entry, txn)
		return txErr
	}); err != nil {
		if db.IsUniqueViolation(err, "") {
			s.logg.Warn(ctx, "transaction already recorded for order")
			return s.skip(ctx, outcome, SkipDuplicateOrder), nil
		}
		s.metrics.IncTransition("NONE->FAILED")
		return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create entry")
	}
	if !created {
		return s.skip(ctx, outcome, SkipDuplicateOrder), nil
	}

	outcome.State = enums.EntryStatePending
	outcome.Changed = true
	outcome.Period = entry.Period
	outcome.Fee = txn.FeeAmount
	s.metrics.IncTransition("NONE->PENDING")

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"period":       entry.Period,
		"order_amount": entry.OrderAmount.StringFixed(2),
		"fee_amount":   txn.FeeAmount.StringFixed(2),
	})
	s.logg.Info(logCtx, "entry created")
	return outcome, nil
}

// CustomerDecision records the shopper's opt-in or opt-out. An entry must
// exist for the order.
func (s *Service) CustomerDecision(ctx context.Context, event CustomerOptIn) (Outcome, error) {
	if err := event.Validate(); err != nil {
		return Outcome{}, err
	}
	ctx = s.logContext(ctx, event.ShopDomain, event.OrderID)

	merchant, err := s.merchants.Lookup(ctx, event.ShopDomain)
	if err != nil {
		return Outcome{}, err
	}
	if merchant == nil {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
	}

	evt := EventOptOut
	if event.OptedIn {
		evt = EventOptIn
	}
	return s.transition(ctx, merchant, event.OrderID, evt, true)
}

// OrderUpdated deactivates the entry when a refund leaves the order below the
// merchant's threshold. Partial refunds that keep the order qualifying change
// nothing. Pool contributions are never reversed.
func (s *Service) OrderUpdated(ctx context.Context, event OrderUpdated) (Outcome, error) {
	if err := event.Validate(); err != nil {
		return Outcome{}, err
	}
	ctx = s.logContext(ctx, event.ShopDomain, event.OrderID)
	outcome := Outcome{OrderID: event.OrderID}

	merchant, err := s.merchants.Lookup(ctx, event.ShopDomain)
	if err != nil {
		return Outcome{}, err
	}
	// Refunds are recorded for inactive merchants too.
	if merchant == nil {
		return s.skip(ctx, outcome, SkipMerchantNotFound), nil
	}

	remaining := event.Subtotal.Sub(event.TotalRefunded)
	fullRefund := event.TotalRefunded.GreaterThanOrEqual(event.Subtotal)
	if !fullRefund && !remaining.LessThan(merchant.Threshold) {
		return s.skip(ctx, outcome, SkipPartialRefund), nil
	}
	return s.transition(ctx, merchant, event.OrderID, EventRefund, false)
}

// transition applies evt to the order's entry inside one database
// transaction: the entry flag, the transaction status and any pool
// contribution commit together or not at all.
func (s *Service) transition(ctx context.Context, merchant *models.Merchant, orderID string, evt Event, requireEntry bool) (Outcome, error) {
	outcome := Outcome{OrderID: orderID}
	var (
		tr           Transition
		contribution decimal.Decimal
		applied      prizepool.OrderContribution
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, txn, err := repo.FindByOrderID(ctx, orderID, true)
		if err != nil {
			if db.IsNotFound(err) {
				entry = nil
			} else {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entry")
			}
		}
		if entry == nil || entry.MerchantID != merchant.ID {
			return errEntryNotFound
		}
		outcome.Period = entry.Period
		if txn != nil {
			outcome.Fee = txn.FeeAmount
		}

		from, deriveErr := DeriveState(entry, txn)
		if deriveErr != nil {
			// A refund deactivates from any state, including one left
			// inconsistent by customer redaction.
			if evt != EventRefund || txn == nil {
				return deriveErr
			}
			s.logg.Warn(ctx, "deactivating entry from inconsistent state")
			tr = Transition{From: enums.EntryStateConflict, To: enums.EntryStateDeactivated, Event: evt}
		} else {
			tr, err = Next(from, evt)
			if err != nil {
				return err
			}
		}
		outcome.Previous = tr.From
		outcome.State = tr.To
		if tr.NoOp() {
			return nil
		}

		fields := fieldsByState[tr.To]
		if err := repo.ApplyState(ctx, orderID, fields.isActive, fields.status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply entry state")
		}
		if tr.Contribute {
			contribution = fees.Contribution(txn.FeeAmount)
			applied, err = s.pool.ApplyOrderContribution(ctx, tx, orderID, entry.Period, contribution)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errEntryNotFound) {
			if requireEntry {
				return Outcome{}, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found").
					WithDetails(map[string]any{"orderId": orderID})
			}
			return s.skip(ctx, outcome, SkipEntryNotFound), nil
		}
		return Outcome{}, err
	}

	if tr.NoOp() {
		outcome.Skipped = SkipNoChange
		s.logg.Info(s.logg.WithField(ctx, "state", tr.To), "entry already in target state")
		return outcome, nil
	}

	outcome.Changed = true
	s.metrics.IncTransition(tr.Label())
	logCtx := s.logg.WithFields(ctx, map[string]any{"transition": tr.Label(), "event": evt})
	if applied.Applied {
		outcome.Contribution = contribution
		outcome.ContributionApplied = true
		outcome.PoolTotal = applied.Total
		s.pool.RecordApplied(outcome.Period, contribution)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"contribution": contribution.StringFixed(2),
			"pool_total":   applied.Total.StringFixed(2),
			"period":       outcome.Period,
		})
	}
	s.logg.Info(logCtx, "entry "+strings.ToLower(string(tr.To)))
	return outcome, nil
}

var errEntryNotFound = errors.New("entry not found")

func (s *Service) skip(ctx context.Context, outcome Outcome, reason SkipReason) Outcome {
	outcome.Skipped = reason
	s.logg.Info(s.logg.WithField(ctx, "skip_reason", reason), "lifecycle event skipped")
	return outcome
}

func (s *Service) logContext(ctx context.Context, shopDomain, orderID string) context.Context {
	ctx = s.logg.WithShopDomain(ctx, shopDomain)
	return s.logg.WithOrderID(ctx, orderID)
}

func feeDescription(event OrderPaid) string {
	ref := event.OrderNumber
	if ref == "" {
		ref = event.OrderID
	}
	return "Transaction fee for order " + ref
}

func merchantSkipReason(merchant *models.Merchant) SkipReason {
	switch {
	case merchant == nil:
		return SkipMerchantNotFound
	case !merchant.IsActive:
		return SkipMerchantInactive
	case !merchant.Threshold.IsPositive():
		return SkipSweepstakesDisabled
	}
	return ""
}
