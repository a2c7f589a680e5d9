package entries

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/colondancer/raffle-bee/pkg/enums"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
)

// SkipReason explains why an event changed nothing.
type SkipReason string

const (
	SkipMerchantNotFound    SkipReason = "merchant_not_found"
	SkipMerchantInactive    SkipReason = "merchant_inactive"
	SkipSweepstakesDisabled SkipReason = "sweepstakes_disabled"
	SkipBelowThreshold      SkipReason = "below_threshold"
	SkipIneligibleCountry   SkipReason = "ineligible_country"
	SkipDuplicateOrder      SkipReason = "duplicate_order"
	SkipEntryNotFound       SkipReason = "entry_not_found"
	SkipPartialRefund       SkipReason = "partial_refund"
	SkipNoChange            SkipReason = "no_change"
)

// Outcome reports what a lifecycle event did to an order's entry.
type Outcome struct {
	OrderID             string           `json:"orderId"`
	Period              string           `json:"period,omitempty"`
	Previous            enums.EntryState `json:"previousState,omitempty"`
	State               enums.EntryState `json:"state,omitempty"`
	Changed             bool             `json:"changed"`
	Skipped             SkipReason       `json:"skipped,omitempty"`
	Fee                 decimal.Decimal  `json:"-"`
	Contribution        decimal.Decimal  `json:"-"`
	ContributionApplied bool             `json:"contributionApplied"`
	PoolTotal           decimal.Decimal  `json:"-"`
}

// OrderPaid is the slice of a paid order the lifecycle needs.
type OrderPaid struct {
	OrderID        string
	OrderNumber    string
	ShopDomain     string
	Subtotal       decimal.Decimal
	BillingCountry string
	CustomerID     *string
	CustomerEmail  string
	CustomerName   *string
}

// Validate checks the required fields.
func (e OrderPaid) Validate() error {
	if err := requireOrder(e.ShopDomain, e.OrderID); err != nil {
		return err
	}
	if e.Subtotal.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be non-negative")
	}
	if strings.TrimSpace(e.CustomerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	return nil
}

// OrderUpdated carries the refund totals of an updated order.
type OrderUpdated struct {
	OrderID       string
	ShopDomain    string
	Subtotal      decimal.Decimal
	TotalRefunded decimal.Decimal
}

// Validate checks the required fields.
func (e OrderUpdated) Validate() error {
	if err := requireOrder(e.ShopDomain, e.OrderID); err != nil {
		return err
	}
	if e.Subtotal.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be non-negative")
	}
	if e.TotalRefunded.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "refunded total must be non-negative")
	}
	return nil
}

// CustomerOptIn is the shopper's decision on the thank-you page.
type CustomerOptIn struct {
	OrderID    string
	ShopDomain string
	OptedIn    bool
}

// Validate checks the required fields.
func (e CustomerOptIn) Validate() error {
	return requireOrder(e.ShopDomain, e.OrderID)
}

func requireOrder(shopDomain, orderID string) error {
	if strings.TrimSpace(shopDomain) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop domain is required")
	}
	if strings.TrimSpace(orderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return nil
}
