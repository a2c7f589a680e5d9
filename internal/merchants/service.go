package merchants

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/enums"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes merchant operations.
type Service interface {
	// Lookup returns nil without error when the shop is not installed.
	Lookup(ctx context.Context, shopDomain string) (*models.Merchant, error)
	Get(ctx context.Context, shopDomain string) (*models.Merchant, error)
	Ensure(ctx context.Context, shopDomain string) (*models.Merchant, error)
	UpdateSettings(ctx context.Context, shopDomain string, input SettingsInput) (*models.Merchant, error)
	Deactivate(ctx context.Context, shopDomain string) (bool, error)
	RedactShop(ctx context.Context, shopDomain string) (*ShopRedaction, error)
}

// SettingsInput carries the merchant-editable program settings.
type SettingsInput struct {
	Threshold   decimal.Decimal
	BillingPlan string
}

// ShopRedaction summarises a shop erasure.
type ShopRedaction struct {
	ShopDomain string       `json:"shopDomain"`
	Deleted    RecordCounts `json:"deleted"`
}

// ServiceParams groups dependencies for the merchant service.
type ServiceParams struct {
	Repo             Repository
	TxRunner         txRunner
	Logger           *logger.Logger
	DefaultThreshold decimal.Decimal
}

type service struct {
	repo             Repository
	tx               txRunner
	logg             *logger.Logger
	defaultThreshold decimal.Decimal
}

// NewService builds a merchant service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.TxRunner == nil {
		return nil, errors.New("tx runner is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DefaultThreshold.IsNegative() {
		return nil, errors.New("default threshold must be non-negative")
	}
	return &service{
		repo:             params.Repo,
		tx:               params.TxRunner,
		logg:             params.Logger,
		defaultThreshold: params.DefaultThreshold,
	}, nil
}

// NormalizeShopDomain trims and lowercases a shop domain.
func NormalizeShopDomain(shopDomain string) string {
	return strings.ToLower(strings.TrimSpace(shopDomain))
}

func (s *service) Lookup(ctx context.Context, shopDomain string) (*models.Merchant, error) {
	shop, err := requireShop(shopDomain)
	if err != nil {
		return nil, err
	}
	merchant, err := s.repo.FindByShopDomain(ctx, shop)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	return merchant, nil
}

func (s *service) Get(ctx context.Context, shopDomain string) (*models.Merchant, error) {
	merchant, err := s.Lookup(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
	}
	return merchant, nil
}

func (s *service) Ensure(ctx context.Context, shopDomain string) (*models.Merchant, error) {
	merchant, err := s.Lookup(ctx, shopDomain)
	if err != nil || merchant != nil {
		return merchant, err
	}

	shop := NormalizeShopDomain(shopDomain)
	candidate := &models.Merchant{
		ShopDomain:  shop,
		Threshold:   s.defaultThreshold,
		BillingPlan: enums.BillingPlanStandard,
		IsActive:    true,
	}
	created, err := s.repo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merchant")
	}
	if created {
		s.logg.Info(s.logg.WithShopDomain(ctx, shop), "merchant created")
	}

	merchant, err = s.repo.FindByShopDomain(ctx, shop)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload merchant")
	}
	return merchant, nil
}

func (s *service) UpdateSettings(ctx context.Context, shopDomain string, input SettingsInput) (*models.Merchant, error) {
	if input.Threshold.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must be zero or greater").
			WithDetails(map[string]any{"field": "threshold"})
	}
	plan, err := enums.ParseBillingPlan(strings.ToUpper(strings.TrimSpace(input.BillingPlan)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "billing plan must be STANDARD or ENTERPRISE").
			WithDetails(map[string]any{"field": "billingPlan"})
	}

	merchant, err := s.Ensure(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	threshold := input.Threshold.Round(2)
	if err := s.repo.UpdateSettings(ctx, merchant.ID, threshold, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update merchant settings")
	}
	merchant.Threshold = threshold
	merchant.BillingPlan = plan

	logCtx := s.logg.WithShopDomain(ctx, merchant.ShopDomain)
	logCtx = s.logg.WithFields(logCtx, map[string]any{"threshold": threshold.StringFixed(2), "billing_plan": plan})
	s.logg.Info(logCtx, "merchant settings updated")
	return merchant, nil
}

// Deactivate marks an uninstalled shop inactive. It reports false when the
// shop was never installed.
func (s *service) Deactivate(ctx context.Context, shopDomain string) (bool, error) {
	merchant, err := s.Lookup(ctx, shopDomain)
	if err != nil || merchant == nil {
		return false, err
	}
	if err := s.repo.SetActive(ctx, merchant.ID, false); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate merchant")
	}
	s.logg.Info(s.logg.WithShopDomain(ctx, merchant.ShopDomain), "merchant deactivated")
	return true, nil
}

// RedactShop erases the merchant and everything it owns. It returns nil when
// the shop is unknown.
func (s *service) RedactShop(ctx context.Context, shopDomain string) (*ShopRedaction, error) {
	merchant, err := s.Lookup(ctx, shopDomain)
	if err != nil || merchant == nil {
		return nil, err
	}

	var counts RecordCounts
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		counts, txErr = s.repo.WithTx(tx).DeleteWithRecords(ctx, merchant.ID)
		return txErr
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redact shop")
	}

	logCtx := s.logg.WithShopDomain(ctx, merchant.ShopDomain)
	logCtx = s.logg.WithFields(logCtx, map[string]any{"entries": counts.Entries, "transactions": counts.Transactions})
	s.logg.Info(logCtx, "shop data redacted")
	return &ShopRedaction{ShopDomain: merchant.ShopDomain, Deleted: counts}, nil
}

func requireShop(shopDomain string) (string, error) {
	shop := NormalizeShopDomain(shopDomain)
	if shop == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "shop domain is required").
			WithDetails(map[string]any{"field": "shopDomain"})
	}
	return shop, nil
}
