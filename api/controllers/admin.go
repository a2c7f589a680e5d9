package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/colondancer/raffle-bee/api/middleware"
	"github.com/colondancer/raffle-bee/api/responses"
	"github.com/colondancer/raffle-bee/api/validators"
	"github.com/colondancer/raffle-bee/internal/entries"
	"github.com/colondancer/raffle-bee/internal/merchants"
	"github.com/colondancer/raffle-bee/internal/prizepool"
	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/enums"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

const (
	defaultEntryLimit = 50
	maxEntryLimit     = 50
)

type merchantAdmin interface {
	Ensure(ctx context.Context, shopDomain string) (*models.Merchant, error)
	UpdateSettings(ctx context.Context, shopDomain string, input merchants.SettingsInput) (*models.Merchant, error)
}

type entryReports interface {
	ListRecent(ctx context.Context, shopDomain string, limit int) ([]entries.EntryView, error)
	Dashboard(ctx context.Context, shopDomain string) (*entries.Dashboard, error)
}

type merchantDTO struct {
	ID                 uuid.UUID         `json:"id"`
	ShopDomain         string            `json:"shopDomain"`
	Threshold          float64           `json:"threshold"`
	BillingPlan        enums.BillingPlan `json:"billingPlan"`
	IsActive           bool              `json:"isActive"`
	SweepstakesEnabled bool              `json:"sweepstakesEnabled"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

func newMerchantDTO(m *models.Merchant) merchantDTO {
	return merchantDTO{
		ID:                 m.ID,
		ShopDomain:         m.ShopDomain,
		Threshold:          m.Threshold.InexactFloat64(),
		BillingPlan:        m.BillingPlan,
		IsActive:           m.IsActive,
		SweepstakesEnabled: m.SweepstakesEnabled(),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// AdminMerchant returns the merchant record for the embedded admin, creating
// it on first visit.
func AdminMerchant(svc merchantAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}
		shop, ok := requireShop(w, r, logg)
		if !ok {
			return
		}

		merchant, err := svc.Ensure(r.Context(), shop)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMerchantDTO(merchant))
	}
}

type settingsRequest struct {
	Threshold   *decimal.Decimal `json:"threshold" validate:"required"`
	BillingPlan string           `json:"billingPlan" validate:"required"`
}

// AdminSettings saves the threshold and billing plan.
func AdminSettings(svc merchantAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}
		shop, ok := requireShop(w, r, logg)
		if !ok {
			return
		}

		var payload settingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchant, err := svc.UpdateSettings(r.Context(), shop, merchants.SettingsInput{
			Threshold:   *payload.Threshold,
			BillingPlan: payload.BillingPlan,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMerchantDTO(merchant))
	}
}

type entryDTO struct {
	OrderID       string           `json:"orderId"`
	CustomerEmail string           `json:"customerEmail"`
	CustomerName  *string          `json:"customerName,omitempty"`
	OrderAmount   float64          `json:"orderAmount"`
	FeeAmount     float64          `json:"feeAmount"`
	Period        string           `json:"period"`
	State         enums.EntryState `json:"state"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type entriesResponse struct {
	Entries []entryDTO `json:"entries"`
}

// AdminEntries lists the most recent entries of the shop, newest first.
func AdminEntries(svc entryReports, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entry service unavailable"))
			return
		}
		shop, ok := requireShop(w, r, logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultEntryLimit, 1, maxEntryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.ListRecent(r.Context(), shop, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := entriesResponse{Entries: make([]entryDTO, 0, len(views))}
		for _, v := range views {
			resp.Entries = append(resp.Entries, entryDTO{
				OrderID:       v.OrderID,
				CustomerEmail: v.CustomerEmail,
				CustomerName:  v.CustomerName,
				OrderAmount:   v.OrderAmount.InexactFloat64(),
				FeeAmount:     v.FeeAmount.InexactFloat64(),
				Period:        v.Period,
				State:         v.State,
				CreatedAt:     v.CreatedAt,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}

type statsResponse struct {
	TotalEntries       int64   `json:"totalEntries"`
	ActiveEntries      int64   `json:"activeEntries"`
	CompletedFees      float64 `json:"completedFees"`
	Period             string  `json:"period"`
	PeriodLabel        string  `json:"periodLabel"`
	PrizePool          float64 `json:"prizePool"`
	FormattedPrizePool string  `json:"formattedPrizePool"`
	NextDrawing        string  `json:"nextDrawing"`
}

// AdminStats returns the dashboard counters for the shop.
func AdminStats(svc entryReports, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entry service unavailable"))
			return
		}
		shop, ok := requireShop(w, r, logg)
		if !ok {
			return
		}

		dash, err := svc.Dashboard(r.Context(), shop)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statsResponse{
			TotalEntries:       dash.TotalEntries,
			ActiveEntries:      dash.ActiveEntries,
			CompletedFees:      dash.CompletedFees.InexactFloat64(),
			Period:             dash.Period,
			PeriodLabel:        dash.PeriodLabel,
			PrizePool:          dash.PoolAmount.InexactFloat64(),
			FormattedPrizePool: prizepool.FormatUSD(dash.PoolAmount),
			NextDrawing:        dash.NextDrawing,
		})
	}
}

func requireShop(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	shop := middleware.ShopDomainFromContext(r.Context())
	if shop == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop context missing"))
		return "", false
	}
	return shop, true
}
