package entries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/enums"
)

const (
	redactedEmail       = "redacted@privacy.com"
	redactedName        = "Redacted Customer"
	redactedDescription = "Redacted transaction - customer data removed"
)

// Repository persists entries together with their sibling transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIfAbsent(ctx context.Context, entry *models.Entry, txn *models.Transaction) (bool, error)
	FindByOrderID(ctx context.Context, orderID string, forUpdate bool) (*models.Entry, *models.Transaction, error)
	ApplyState(ctx context.Context, orderID string, isActive bool, status enums.TransactionStatus) error
	ListRecentByMerchant(ctx context.Context, merchantID uuid.UUID, limit int) ([]models.Entry, map[string]models.Transaction, error)
	Stats(ctx context.Context, merchantID uuid.UUID) (Stats, error)
	RedactCustomer(ctx context.Context, merchantID uuid.UUID, customerID *string, email string) (int64, error)
}

// Stats aggregates a merchant's entries.
type Stats struct {
	TotalEntries  int64
	ActiveEntries int64
	CompletedFees decimal.Decimal
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an entry repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateIfAbsent inserts the entry and its transaction unless an entry for
// the order already exists. The entry insert is conditional on the unique
// order id so concurrent deliveries of the same order create exactly one row.
// A stray transaction row for the order fails the second insert with a unique
// violation. Callers run it inside a transaction so the pair is written
// together.
func (r *repository) CreateIfAbsent(ctx context.Context, entry *models.Entry, txn *models.Transaction) (bool, error) {
	if entry == nil || txn == nil {
		return false, errors.New("entry and transaction are required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	db := r.db.WithContext(ctx)

	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if err := db.Create(txn).Error; err != nil {
		return false, err
	}
	return true, nil
}

// FindByOrderID loads the entry and its transaction. The entry row is locked
// for the rest of the transaction when forUpdate is set and the database
// supports row locks. The transaction is nil when no sibling row exists.
func (r *repository) FindByOrderID(ctx context.Context, orderID string, forUpdate bool) (*models.Entry, *models.Transaction, error) {
	q := r.db.WithContext(ctx)
	if forUpdate && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var entry models.Entry
	if err := q.Where("order_id = ?", orderID).First(&entry).Error; err != nil {
		return nil, nil, err
	}

	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entry, nil, nil
		}
		return nil, nil, err
	}
	return &entry, &txn, nil
}

func (r *repository) ApplyState(ctx context.Context, orderID string, isActive bool, status enums.TransactionStatus) error {
	now := time.Now().UTC()
	db := r.db.WithContext(ctx)

	res := db.Model(&models.Entry{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{"is_active": isActive, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	res = db.Model(&models.Transaction{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{"status": status, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListRecentByMerchant(ctx context.Context, merchantID uuid.UUID, limit int) ([]models.Entry, map[string]models.Transaction, error) {
	var rows []models.Entry
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	txns := make(map[string]models.Transaction, len(rows))
	if len(rows) == 0 {
		return rows, txns, nil
	}

	orderIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		orderIDs = append(orderIDs, row.OrderID)
	}
	var siblings []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Find(&siblings).Error; err != nil {
		return nil, nil, err
	}
	for _, txn := range siblings {
		txns[txn.OrderID] = txn
	}
	return rows, txns, nil
}

func (r *repository) Stats(ctx context.Context, merchantID uuid.UUID) (Stats, error) {
	var stats Stats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Entry{}).
		Where("merchant_id = ?", merchantID).
		Count(&stats.TotalEntries).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Entry{}).
		Where("merchant_id = ? AND is_active = ?", merchantID, true).
		Count(&stats.ActiveEntries).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(fee_amount), 0)").
		Where("merchant_id = ? AND status = ?", merchantID, enums.TransactionStatusCompleted).
		Row().Scan(&stats.CompletedFees); err != nil {
		return stats, err
	}
	stats.CompletedFees = stats.CompletedFees.Round(2)
	return stats, nil
}

// RedactCustomer anonymises every entry of the merchant that belongs to the
// customer, matched by id or email, and annotates the sibling transactions.
func (r *repository) RedactCustomer(ctx context.Context, merchantID uuid.UUID, customerID *string, email string) (int64, error) {
	db := r.db.WithContext(ctx)

	match := db.Where("merchant_id = ?", merchantID)
	switch {
	case customerID != nil && email != "":
		match = match.Where(db.Where("customer_id = ?", *customerID).Or("customer_email = ?", email))
	case customerID != nil:
		match = match.Where("customer_id = ?", *customerID)
	default:
		match = match.Where("customer_email = ?", email)
	}

	var orderIDs []string
	if err := match.Model(&models.Entry{}).Pluck("order_id", &orderIDs).Error; err != nil {
		return 0, err
	}
	if len(orderIDs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	res := db.Model(&models.Entry{}).
		Where("order_id IN ?", orderIDs).
		Updates(map[string]any{
			"customer_id":    gorm.Expr("NULL"),
			"customer_email": redactedEmail,
			"customer_name":  redactedName,
			"is_active":      false,
			"updated_at":     now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	affected := res.RowsAffected

	if err := db.Model(&models.Transaction{}).
		Where("order_id IN ?", orderIDs).
		Updates(map[string]any{"description": redactedDescription, "updated_at": now}).Error; err != nil {
		return 0, err
	}
	return affected, nil
}
