package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is a single order's participation record for its period.
type Entry struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID    uuid.UUID       `gorm:"column:merchant_id;type:uuid;not null;index"`
	OrderID       string          `gorm:"column:order_id;not null;uniqueIndex"`
	CustomerID    *string         `gorm:"column:customer_id"`
	CustomerEmail string          `gorm:"column:customer_email;not null"`
	CustomerName  *string         `gorm:"column:customer_name"`
	OrderAmount   decimal.Decimal `gorm:"column:order_amount;type:numeric(12,2);not null"`
	Period        string          `gorm:"column:period;not null;index"`
	IsActive      bool            `gorm:"column:is_active;not null;default:false"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
