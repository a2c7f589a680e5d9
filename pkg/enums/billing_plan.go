package enums

import "fmt"

// BillingPlan is the merchant's fee-rate tier.
type BillingPlan string

const (
	BillingPlanStandard   BillingPlan = "STANDARD"
	BillingPlanEnterprise BillingPlan = "ENTERPRISE"
)

var validBillingPlans = []BillingPlan{
	BillingPlanStandard,
	BillingPlanEnterprise,
}

// String implements fmt.Stringer.
func (b BillingPlan) String() string {
	return string(b)
}

// IsValid reports whether the value is known.
func (b BillingPlan) IsValid() bool {
	for _, candidate := range validBillingPlans {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillingPlan converts raw input into a BillingPlan. Lookups are
// case-insensitive on the settings form, so callers normalise first.
func ParseBillingPlan(value string) (BillingPlan, error) {
	for _, candidate := range validBillingPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing plan %q", value)
}
