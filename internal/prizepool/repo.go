package prizepool

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/colondancer/raffle-bee/pkg/db/models"
)

// Repository persists prize pools and the contribution ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Increment(ctx context.Context, period string, amount decimal.Decimal) error
	FindByPeriod(ctx context.Context, period string) (*models.PrizePool, error)
	RecordContribution(ctx context.Context, contribution *models.PrizePoolContribution) (bool, error)
	ListActiveBefore(ctx context.Context, period string) ([]models.PrizePool, error)
	Deactivate(ctx context.Context, period string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a prize pool repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Increment adds amount to the period's pool in a single statement, creating
// the pool when it does not exist yet.
func (r *repository) Increment(ctx context.Context, period string, amount decimal.Decimal) error {
	now := time.Now().UTC()
	pool := models.PrizePool{
		ID:            uuid.New(),
		Period:        period,
		CurrentAmount: amount,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "period"}},
			DoUpdates: clause.Assignments(map[string]any{
				"current_amount": gorm.Expr("prize_pools.current_amount + ?", amount),
				"updated_at":     now,
			}),
		}).
		Create(&pool).Error
}

func (r *repository) FindByPeriod(ctx context.Context, period string) (*models.PrizePool, error) {
	var pool models.PrizePool
	if err := r.db.WithContext(ctx).
		Where("period = ?", period).
		First(&pool).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

// RecordContribution inserts the ledger row for an order. It reports false
// when the order already contributed.
func (r *repository) RecordContribution(ctx context.Context, contribution *models.PrizePoolContribution) (bool, error) {
	if contribution == nil {
		return false, errors.New("contribution is required")
	}
	if contribution.ID == uuid.Nil {
		contribution.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).
		Create(contribution)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListActiveBefore returns active pools whose period sorts before period.
func (r *repository) ListActiveBefore(ctx context.Context, period string) ([]models.PrizePool, error) {
	var pools []models.PrizePool
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND period < ?", true, period).
		Order("period ASC").
		Find(&pools).Error; err != nil {
		return nil, err
	}
	return pools, nil
}

func (r *repository) Deactivate(ctx context.Context, period string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PrizePool{}).
		Where("period = ? AND is_active = ?", period, true).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
