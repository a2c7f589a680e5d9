package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/colondancer/raffle-bee/api/middleware"
	"github.com/colondancer/raffle-bee/internal/entries"
	"github.com/colondancer/raffle-bee/internal/merchants"
	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/enums"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
)

type stubMerchantAdmin struct {
	merchant *models.Merchant
	err      error
	input    merchants.SettingsInput
	shop     string
}

func (s *stubMerchantAdmin) Ensure(ctx context.Context, shopDomain string) (*models.Merchant, error) {
	s.shop = shopDomain
	return s.merchant, s.err
}

func (s *stubMerchantAdmin) UpdateSettings(ctx context.Context, shopDomain string, input merchants.SettingsInput) (*models.Merchant, error) {
	s.shop = shopDomain
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	m := *s.merchant
	m.Threshold = input.Threshold
	m.BillingPlan = enums.BillingPlan(input.BillingPlan)
	return &m, nil
}

type stubEntryReports struct {
	views []entries.EntryView
	dash  *entries.Dashboard
	err   error
	limit int
}

func (s *stubEntryReports) ListRecent(ctx context.Context, shopDomain string, limit int) ([]entries.EntryView, error) {
	s.limit = limit
	return s.views, s.err
}

func (s *stubEntryReports) Dashboard(ctx context.Context, shopDomain string) (*entries.Dashboard, error) {
	return s.dash, s.err
}

func shopRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithShopDomain(req.Context(), "demo.myshopify.com"))
}

func testMerchant() *models.Merchant {
	return &models.Merchant{
		ID:          uuid.New(),
		ShopDomain:  "demo.myshopify.com",
		Threshold:   decimal.RequireFromString("50"),
		BillingPlan: enums.BillingPlanStandard,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func TestAdminMerchant(t *testing.T) {
	svc := &stubMerchantAdmin{merchant: testMerchant()}
	handler := AdminMerchant(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, shopRequest(http.MethodGet, "/admin/api/merchant", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var got merchantDTO
	decodeData(t, rec, &got)
	if got.ShopDomain != "demo.myshopify.com" || got.Threshold != 50 || !got.SweepstakesEnabled {
		t.Fatalf("unexpected merchant %+v", got)
	}
	if svc.shop != "demo.myshopify.com" {
		t.Fatalf("expected shop from context, got %q", svc.shop)
	}
}

func TestAdminMerchantRequiresShopContext(t *testing.T) {
	handler := AdminMerchant(&stubMerchantAdmin{merchant: testMerchant()}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/api/merchant", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminSettings(t *testing.T) {
	svc := &stubMerchantAdmin{merchant: testMerchant()}
	handler := AdminSettings(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, shopRequest(http.MethodPut, "/admin/api/settings", `{"threshold":"75.50","billingPlan":"ENTERPRISE"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if !svc.input.Threshold.Equal(decimal.RequireFromString("75.5")) || svc.input.BillingPlan != "ENTERPRISE" {
		t.Fatalf("unexpected settings input %+v", svc.input)
	}
	var got merchantDTO
	decodeData(t, rec, &got)
	if got.Threshold != 75.5 || got.BillingPlan != enums.BillingPlanEnterprise {
		t.Fatalf("unexpected merchant %+v", got)
	}
}

func TestAdminSettingsValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
	}{
		{name: "missing threshold", body: `{"billingPlan":"STANDARD"}`},
		{name: "missing plan", body: `{"threshold":10}`},
		{name: "service rejects plan", body: `{"threshold":10,"billingPlan":"GOLD"}`, err: pkgerrors.New(pkgerrors.CodeValidation, "billing plan must be STANDARD or ENTERPRISE")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AdminSettings(&stubMerchantAdmin{merchant: testMerchant(), err: tc.err}, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, shopRequest(http.MethodPut, "/admin/api/settings", tc.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d (%s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAdminEntries(t *testing.T) {
	name := "Jane Doe"
	svc := &stubEntryReports{views: []entries.EntryView{{
		OrderID:       "1001",
		CustomerEmail: "jane@example.com",
		CustomerName:  &name,
		OrderAmount:   decimal.RequireFromString("80"),
		FeeAmount:     decimal.RequireFromString("2.40"),
		Period:        "2024-Q2",
		State:         enums.EntryStateActive,
		CreatedAt:     time.Now(),
	}}}
	handler := AdminEntries(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, shopRequest(http.MethodGet, "/admin/api/entries?limit=10", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.limit != 10 {
		t.Fatalf("expected limit 10, got %d", svc.limit)
	}
	var got entriesResponse
	decodeData(t, rec, &got)
	if len(got.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(got.Entries))
	}
	entry := got.Entries[0]
	if entry.FeeAmount != 2.4 || entry.State != enums.EntryStateActive || entry.CustomerName == nil || *entry.CustomerName != name {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestAdminEntriesDefaultsAndBounds(t *testing.T) {
	svc := &stubEntryReports{}
	handler := AdminEntries(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, shopRequest(http.MethodGet, "/admin/api/entries", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.limit != defaultEntryLimit {
		t.Fatalf("expected default limit, got %d", svc.limit)
	}
	var got entriesResponse
	decodeData(t, rec, &got)
	if got.Entries == nil {
		t.Fatalf("expected empty list, not null")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, shopRequest(http.MethodGet, "/admin/api/entries?limit=500", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range limit, got %d", rec.Code)
	}
}

func TestAdminStats(t *testing.T) {
	svc := &stubEntryReports{dash: &entries.Dashboard{
		TotalEntries:  3,
		ActiveEntries: 1,
		CompletedFees: decimal.RequireFromString("3.00"),
		Period:        "2024-Q2",
		PeriodLabel:   "2024 Q2 (Apr-Jun)",
		PoolAmount:    decimal.RequireFromString("1.50"),
		NextDrawing:   "2024-06-30",
	}}
	handler := AdminStats(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, shopRequest(http.MethodGet, "/admin/api/stats", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var got statsResponse
	decodeData(t, rec, &got)
	if got.TotalEntries != 3 || got.ActiveEntries != 1 || got.CompletedFees != 3 {
		t.Fatalf("unexpected counters %+v", got)
	}
	if got.PrizePool != 1.5 || got.FormattedPrizePool != "$1.50" || got.NextDrawing != "2024-06-30" {
		t.Fatalf("unexpected pool fields %+v", got)
	}
}

func TestAdminStatsMerchantMissing(t *testing.T) {
	handler := AdminStats(&stubEntryReports{err: pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, shopRequest(http.MethodGet, "/admin/api/stats", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
