package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/colondancer/raffle-bee/pkg/enums"
)

// Merchant is one installed Shopify store.
type Merchant struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ShopDomain  string            `gorm:"column:shop_domain;not null;uniqueIndex"`
	Threshold   decimal.Decimal   `gorm:"column:threshold;type:numeric(12,2);not null;default:0"`
	BillingPlan enums.BillingPlan `gorm:"column:billing_plan;type:billing_plan;not null;default:'STANDARD'"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// SweepstakesEnabled reports whether the merchant may offer entries at all.
// A threshold at or below zero disables the program regardless of IsActive.
func (m *Merchant) SweepstakesEnabled() bool {
	return m != nil && m.IsActive && m.Threshold.IsPositive()
}
