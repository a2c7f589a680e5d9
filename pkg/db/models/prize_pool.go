package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrizePool accumulates contributions for one period. Shared by all merchants.
type PrizePool struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Period        string          `gorm:"column:period;not null;uniqueIndex"`
	CurrentAmount decimal.Decimal `gorm:"column:current_amount;type:numeric(12,2);not null;default:0"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// PrizePoolContribution records that an order's contribution reached a pool.
// The unique order id makes application exactly-once per order.
type PrizePoolContribution struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   string          `gorm:"column:order_id;not null;uniqueIndex"`
	Period    string          `gorm:"column:period;not null;index"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
