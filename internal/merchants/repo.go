package merchants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/enums"
)

// Repository persists merchants. Lookups return gorm.ErrRecordNotFound when
// the shop is unknown.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByShopDomain(ctx context.Context, shopDomain string) (*models.Merchant, error)
	CreateIfAbsent(ctx context.Context, merchant *models.Merchant) (bool, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, threshold decimal.Decimal, plan enums.BillingPlan) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteWithRecords(ctx context.Context, id uuid.UUID) (RecordCounts, error)
}

// RecordCounts reports how many rows a shop erasure removed.
type RecordCounts struct {
	Entries      int64 `json:"entries"`
	Transactions int64 `json:"transactions"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a merchant repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByShopDomain(ctx context.Context, shopDomain string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).
		Where("shop_domain = ?", shopDomain).
		First(&merchant).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

// CreateIfAbsent inserts the merchant unless the shop already has a row.
// Concurrent first installs converge on a single row.
func (r *repository) CreateIfAbsent(ctx context.Context, merchant *models.Merchant) (bool, error) {
	if merchant == nil {
		return false, errors.New("merchant is required")
	}
	if merchant.ID == uuid.Nil {
		merchant.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "shop_domain"}}, DoNothing: true}).
		Create(merchant)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateSettings(ctx context.Context, id uuid.UUID, threshold decimal.Decimal, plan enums.BillingPlan) error {
	res := r.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"threshold":    threshold,
			"billing_plan": plan,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

// DeleteWithRecords removes the merchant and every entry and transaction it
// owns. The foreign keys cascade on Postgres; children are deleted explicitly
// so the counts are exact.
func (r *repository) DeleteWithRecords(ctx context.Context, id uuid.UUID) (RecordCounts, error) {
	var counts RecordCounts
	db := r.db.WithContext(ctx)

	res := db.Where("merchant_id = ?", id).Delete(&models.Entry{})
	if res.Error != nil {
		return counts, res.Error
	}
	counts.Entries = res.RowsAffected

	res = db.Where("merchant_id = ?", id).Delete(&models.Transaction{})
	if res.Error != nil {
		return counts, res.Error
	}
	counts.Transactions = res.RowsAffected

	if err := db.Where("id = ?", id).Delete(&models.Merchant{}).Error; err != nil {
		return counts, err
	}
	return counts, nil
}
