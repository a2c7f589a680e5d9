package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/colondancer/raffle-bee/pkg/enums"
)

// Transaction is the merchant billing obligation for one entry. FeeAmount is
// computed at creation and never rewritten.
type Transaction struct {
	ID          uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID  uuid.UUID               `gorm:"column:merchant_id;type:uuid;not null;index"`
	OrderID     string                  `gorm:"column:order_id;not null;uniqueIndex"`
	FeeAmount   decimal.Decimal         `gorm:"column:fee_amount;type:numeric(12,2);not null"`
	Status      enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'PENDING'"`
	Description string                  `gorm:"column:description;not null;default:''"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
