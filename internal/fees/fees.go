// Package fees computes the per-entry transaction fee and the share of it
// routed into the prize pool. Amounts are rounded to cents half away from zero.
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/colondancer/raffle-bee/pkg/enums"
)

var (
	standardRate     = decimal.RequireFromString("0.03")
	enterpriseRate   = decimal.RequireFromString("0.02")
	contributionRate = decimal.RequireFromString("0.5")
)

// Rate returns the fee rate for a plan. Unknown or empty plans pay the
// standard rate.
func Rate(plan enums.BillingPlan) decimal.Decimal {
	if plan == enums.BillingPlanEnterprise {
		return enterpriseRate
	}
	return standardRate
}

// Fee returns the transaction fee owed for an order amount.
func Fee(orderAmount decimal.Decimal, plan enums.BillingPlan) decimal.Decimal {
	return orderAmount.Mul(Rate(plan)).Round(2)
}

// Contribution returns the prize pool share of a fee.
func Contribution(fee decimal.Decimal) decimal.Decimal {
	return fee.Mul(contributionRate).Round(2)
}
