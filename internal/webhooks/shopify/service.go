// Package shopifywebhook routes verified Shopify webhook deliveries to the
// merchant and entry lifecycle services.
package shopifywebhook

import (
	"context"

	"github.com/colondancer/raffle-bee/internal/entries"
	"github.com/colondancer/raffle-bee/internal/merchants"
	"github.com/colondancer/raffle-bee/pkg/enums"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
	"github.com/colondancer/raffle-bee/pkg/metrics"
)

type lifecycle interface {
	OrderPaid(ctx context.Context, event entries.OrderPaid) (entries.Outcome, error)
	OrderUpdated(ctx context.Context, event entries.OrderUpdated) (entries.Outcome, error)
	RedactCustomer(ctx context.Context, shopDomain string, customerID *string, email string) (int64, error)
}

type merchantLifecycle interface {
	Deactivate(ctx context.Context, shopDomain string) (bool, error)
	RedactShop(ctx context.Context, shopDomain string) (*merchants.ShopRedaction, error)
}

// Delivery is one verified webhook request.
type Delivery struct {
	Topic      enums.WebhookTopic
	ShopDomain string
	WebhookID  string
	Body       []byte
}

// Result is what the handler acknowledges back to Shopify.
type Result struct {
	Outcome string `json:"outcome"`
	Detail  any    `json:"detail,omitempty"`
}

type ServiceParams struct {
	Entries   lifecycle
	Merchants merchantLifecycle
	Logger    *logger.Logger
	Metrics   *metrics.SweepstakesMetrics
}

type Service struct {
	entries   lifecycle
	merchants merchantLifecycle
	logg      *logger.Logger
	metrics   *metrics.SweepstakesMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Entries == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entry lifecycle required")
	}
	if params.Merchants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "merchant service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		entries:   params.Entries,
		merchants: params.Merchants,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// Handle dispatches the delivery by topic. Unknown topics are acknowledged
// and skipped. Errors are returned only when Shopify should retry or the
// payload is unusable.
func (s *Service) Handle(ctx context.Context, d Delivery) (Result, error) {
	ctx = s.logg.WithWebhook(ctx, string(d.Topic), d.WebhookID)
	ctx = s.logg.WithShopDomain(ctx, d.ShopDomain)

	res, err := s.dispatch(ctx, d)
	if err != nil {
		s.metrics.IncWebhook(string(d.Topic), metrics.OutcomeFailed)
		return Result{}, err
	}
	s.metrics.IncWebhook(string(d.Topic), res.Outcome)
	return res, nil
}

// RecordDuplicate counts a delivery dropped by the dedup guard.
func (s *Service) RecordDuplicate(topic enums.WebhookTopic) {
	s.metrics.IncWebhook(string(topic), metrics.OutcomeDuplicate)
}

func (s *Service) dispatch(ctx context.Context, d Delivery) (Result, error) {
	switch d.Topic {
	case enums.WebhookTopicOrdersPaid:
		event, err := OrderPaidFromPayload(d.ShopDomain, d.Body)
		if err != nil {
			return Result{}, err
		}
		out, err := s.entries.OrderPaid(ctx, event)
		if err != nil {
			return Result{}, err
		}
		return fromOutcome(out), nil

	case enums.WebhookTopicOrdersUpdated:
		event, err := OrderUpdatedFromPayload(d.ShopDomain, d.Body)
		if err != nil {
			return Result{}, err
		}
		out, err := s.entries.OrderUpdated(ctx, event)
		if err != nil {
			return Result{}, err
		}
		return fromOutcome(out), nil

	case enums.WebhookTopicAppUninstalled:
		shop := ShopDomainFromPayload(d.ShopDomain, d.Body)
		changed, err := s.merchants.Deactivate(ctx, shop)
		if err != nil {
			return Result{}, err
		}
		if !changed {
			return skipped(string(entries.SkipMerchantNotFound)), nil
		}
		return Result{Outcome: metrics.OutcomeProcessed}, nil

	case enums.WebhookTopicCustomersRedact:
		req, err := CustomerRedactionFromPayload(d.ShopDomain, d.Body)
		if err != nil {
			return Result{}, err
		}
		count, err := s.entries.RedactCustomer(ctx, req.ShopDomain, req.CustomerID, req.Email)
		if err != nil {
			return Result{}, err
		}
		return Result{Outcome: metrics.OutcomeProcessed, Detail: map[string]any{"redactedEntries": count}}, nil

	case enums.WebhookTopicShopRedact:
		shop := ShopDomainFromPayload(d.ShopDomain, d.Body)
		redaction, err := s.merchants.RedactShop(ctx, shop)
		if err != nil {
			return Result{}, err
		}
		if redaction == nil {
			return skipped(string(entries.SkipMerchantNotFound)), nil
		}
		return Result{Outcome: metrics.OutcomeProcessed, Detail: redaction}, nil

	case enums.WebhookTopicCustomersDataRequest:
		s.logg.Info(ctx, "customer data request acknowledged")
		return Result{Outcome: metrics.OutcomeProcessed}, nil
	}

	s.logg.Warn(ctx, "unhandled webhook topic")
	return skipped("unhandled_topic"), nil
}

func fromOutcome(out entries.Outcome) Result {
	if out.Skipped != "" {
		return skipped(string(out.Skipped))
	}
	return Result{Outcome: metrics.OutcomeProcessed, Detail: out}
}

func skipped(reason string) Result {
	return Result{Outcome: metrics.OutcomeSkipped, Detail: map[string]any{"reason": reason}}
}
