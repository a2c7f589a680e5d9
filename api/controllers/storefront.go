package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/colondancer/raffle-bee/api/responses"
	"github.com/colondancer/raffle-bee/api/validators"
	"github.com/colondancer/raffle-bee/internal/entries"
	"github.com/colondancer/raffle-bee/internal/prizepool"
	"github.com/colondancer/raffle-bee/internal/qualification"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

const maxStorefrontField = 255

type cartChecker interface {
	CartCheck(ctx context.Context, shopDomain string, cartTotal decimal.Decimal) qualification.Decision
}

type customerDecider interface {
	CustomerDecision(ctx context.Context, event entries.CustomerOptIn) (entries.Outcome, error)
}

type poolSummary interface {
	CurrentSummary(ctx context.Context) (*prizepool.Summary, error)
}

type cartCheckRequest struct {
	Shop      string           `json:"shop" validate:"required"`
	CartTotal *decimal.Decimal `json:"cartTotal" validate:"required"`
}

type cartCheckResponse struct {
	ShowBanner     bool    `json:"showBanner"`
	Qualified      bool    `json:"qualified"`
	Threshold      float64 `json:"threshold,omitempty"`
	PrizeAmount    float64 `json:"prizeAmount,omitempty"`
	FormattedPrize string  `json:"formattedPrize,omitempty"`
	CartTotal      float64 `json:"cartTotal"`
}

func newCartCheckResponse(d qualification.Decision) cartCheckResponse {
	resp := cartCheckResponse{
		ShowBanner: d.ShowBanner,
		Qualified:  d.Qualified,
		CartTotal:  d.CartTotal.InexactFloat64(),
	}
	if d.ShowBanner {
		resp.Threshold = d.Threshold.InexactFloat64()
		resp.PrizeAmount = d.PrizeAmount.InexactFloat64()
		resp.FormattedPrize = prizepool.FormatUSD(d.PrizeAmount)
	}
	return resp
}

// CartCheck tells the cart banner whether to render and whether the cart
// already qualifies. It never fails the request: any problem hides the banner.
func CartCheck(svc cartChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hidden := cartCheckResponse{}
		if svc == nil {
			responses.WriteSuccess(w, hidden)
			return
		}

		var payload cartCheckRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			if logg != nil {
				logg.Debug(logg.WithField(r.Context(), "error", err.Error()), "cart check rejected")
			}
			responses.WriteSuccess(w, hidden)
			return
		}
		shop := strings.ToLower(validators.SanitizeString(payload.Shop, maxStorefrontField))
		if shop == "" || payload.CartTotal.IsNegative() {
			responses.WriteSuccess(w, hidden)
			return
		}

		responses.WriteSuccess(w, newCartCheckResponse(svc.CartCheck(r.Context(), shop, *payload.CartTotal)))
	}
}

type optInRequest struct {
	OrderID       string `json:"orderId" validate:"required"`
	ShopDomain    string `json:"shopDomain" validate:"required"`
	CustomerOptIn *bool  `json:"customerOptIn" validate:"required"`
}

type optInResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Entry   entries.Outcome `json:"entry"`
}

// OptIn records the shopper's answer from the thank-you page.
func OptIn(svc customerDecider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entry service unavailable"))
			return
		}

		var payload optInRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event := entries.CustomerOptIn{
			OrderID:    validators.SanitizeString(payload.OrderID, maxStorefrontField),
			ShopDomain: strings.ToLower(validators.SanitizeString(payload.ShopDomain, maxStorefrontField)),
			OptedIn:    *payload.CustomerOptIn,
		}
		out, err := svc.CustomerDecision(r.Context(), event)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg := "Opt-out recorded"
		if event.OptedIn {
			msg = "Entry activated!"
		}
		responses.WriteSuccess(w, optInResponse{Success: true, Message: msg, Entry: out})
	}
}

type prizePoolResponse struct {
	Period          string  `json:"period"`
	PeriodLabel     string  `json:"periodLabel"`
	CurrentAmount   float64 `json:"currentAmount"`
	FormattedAmount string  `json:"formattedAmount"`
	NextDrawing     string  `json:"nextDrawing"`
}

// PrizePool returns the current period's prize for storefront widgets.
func PrizePool(svc poolSummary, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize pool service unavailable"))
			return
		}

		summary, err := svc.CurrentSummary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, prizePoolResponse{
			Period:          summary.Period,
			PeriodLabel:     summary.PeriodLabel,
			CurrentAmount:   summary.CurrentAmount.Round(2).InexactFloat64(),
			FormattedAmount: summary.FormattedAmount,
			NextDrawing:     summary.NextDrawing,
		})
	}
}
