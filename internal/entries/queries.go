package entries

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/colondancer/raffle-bee/internal/periods"
	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/enums"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
)

// EntryView is one row of the merchant's entry list.
type EntryView struct {
	OrderID       string           `json:"orderId"`
	CustomerEmail string           `json:"customerEmail"`
	CustomerName  *string          `json:"customerName,omitempty"`
	OrderAmount   decimal.Decimal  `json:"orderAmount"`
	FeeAmount     decimal.Decimal  `json:"feeAmount"`
	Period        string           `json:"period"`
	State         enums.EntryState `json:"state"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Dashboard summarises a merchant's sweepstakes activity and the pool of
// the current period.
type Dashboard struct {
	TotalEntries  int64           `json:"totalEntries"`
	ActiveEntries int64           `json:"activeEntries"`
	CompletedFees decimal.Decimal `json:"completedFees"`
	Period        string          `json:"period"`
	PeriodLabel   string          `json:"periodLabel"`
	PoolAmount    decimal.Decimal `json:"poolAmount"`
	NextDrawing   string          `json:"nextDrawing"`
}

// ListRecent returns the merchant's newest entries. Limits outside
// (0, configured] fall back to the configured limit.
func (s *Service) ListRecent(ctx context.Context, shopDomain string, limit int) ([]EntryView, error) {
	merchant, err := s.requireMerchant(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.recentLimit {
		limit = s.recentLimit
	}
	rows, txns, err := s.repo.ListRecentByMerchant(ctx, merchant.ID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list entries")
	}
	views := make([]EntryView, 0, len(rows))
	for i := range rows {
		row := rows[i]
		view := EntryView{
			OrderID:       row.OrderID,
			CustomerEmail: row.CustomerEmail,
			CustomerName:  row.CustomerName,
			OrderAmount:   row.OrderAmount.Round(2),
			Period:        row.Period,
			CreatedAt:     row.CreatedAt,
		}
		var txn *models.Transaction
		if t, ok := txns[row.OrderID]; ok {
			txn = &t
			view.FeeAmount = t.FeeAmount.Round(2)
		}
		state, derr := DeriveState(&row, txn)
		if derr != nil {
			state = enums.EntryStateConflict
		}
		view.State = state
		views = append(views, view)
	}
	return views, nil
}

// Dashboard aggregates the merchant's entries with the current pool.
func (s *Service) Dashboard(ctx context.Context, shopDomain string) (*Dashboard, error) {
	merchant, err := s.requireMerchant(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, merchant.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "entry stats")
	}
	period := periods.Current(s.now())
	pool, err := s.pool.ReadPool(ctx, period)
	if err != nil {
		return nil, err
	}
	end, err := periods.End(period)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "period end")
	}
	return &Dashboard{
		TotalEntries:  stats.TotalEntries,
		ActiveEntries: stats.ActiveEntries,
		CompletedFees: stats.CompletedFees,
		Period:        period,
		PeriodLabel:   periods.Label(period),
		PoolAmount:    pool.CurrentAmount,
		NextDrawing:   end.Format(time.DateOnly),
	}, nil
}

// RedactCustomer anonymises the customer's entries for a shop. Either the
// customer id or the email must be given. Unknown shops redact nothing.
func (s *Service) RedactCustomer(ctx context.Context, shopDomain string, customerID *string, email string) (int64, error) {
	email = strings.TrimSpace(email)
	if customerID != nil && strings.TrimSpace(*customerID) == "" {
		customerID = nil
	}
	if customerID == nil && email == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "customer id or email is required")
	}
	ctx = s.logg.WithShopDomain(ctx, shopDomain)
	merchant, err := s.merchants.Lookup(ctx, shopDomain)
	if err != nil {
		return 0, err
	}
	if merchant == nil {
		s.logg.Info(ctx, "customer redaction for unknown shop")
		return 0, nil
	}
	var count int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		count, txErr = s.repo.WithTx(tx).RedactCustomer(ctx, merchant.ID, customerID, email)
		return txErr
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redact customer")
	}
	s.logg.Info(s.logg.WithField(ctx, "redacted_entries", count), "customer redacted")
	return count, nil
}

func (s *Service) requireMerchant(ctx context.Context, shopDomain string) (*models.Merchant, error) {
	merchant, err := s.merchants.Lookup(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
	}
	return merchant, nil
}
