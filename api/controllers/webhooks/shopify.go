package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/colondancer/raffle-bee/api/responses"
	shopifywebhook "github.com/colondancer/raffle-bee/internal/webhooks/shopify"
	"github.com/colondancer/raffle-bee/pkg/enums"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
	"github.com/colondancer/raffle-bee/pkg/metrics"
)

const (
	TopicHeader      = "X-Shopify-Topic"
	ShopDomainHeader = "X-Shopify-Shop-Domain"
	WebhookIDHeader  = "X-Shopify-Webhook-Id"
)

type ShopifyWebhookService interface {
	Handle(ctx context.Context, d shopifywebhook.Delivery) (shopifywebhook.Result, error)
	RecordDuplicate(topic enums.WebhookTopic)
}

type shopifyWebhookGuard interface {
	CheckAndMark(ctx context.Context, shopDomain, webhookID string) (bool, error)
	Release(ctx context.Context, shopDomain, webhookID string) error
}

// ShopifyWebhook processes a delivery whose signature was already verified by
// middleware. Deliveries without a webhook id skip the dedup guard.
func ShopifyWebhook(svc ShopifyWebhookService, guard shopifyWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		topicHeader := strings.TrimSpace(r.Header.Get(TopicHeader))
		if topicHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook topic missing"))
			return
		}
		d := shopifywebhook.Delivery{
			Topic:      enums.WebhookTopic(topicHeader),
			ShopDomain: strings.ToLower(strings.TrimSpace(r.Header.Get(ShopDomainHeader))),
			WebhookID:  strings.TrimSpace(r.Header.Get(WebhookIDHeader)),
			Body:       payload,
		}
		if logg != nil {
			ctx = logg.WithWebhook(ctx, topicHeader, d.WebhookID)
		}

		guarded := guard != nil && d.WebhookID != ""
		if guarded {
			seen, err := guard.CheckAndMark(ctx, d.ShopDomain, d.WebhookID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook delivery"))
				return
			}
			if seen {
				svc.RecordDuplicate(d.Topic)
				if logg != nil {
					logg.Info(ctx, "duplicate webhook delivery dropped")
				}
				responses.WriteSuccess(w, shopifywebhook.Result{Outcome: metrics.OutcomeDuplicate})
				return
			}
		}

		res, err := svc.Handle(ctx, d)
		if err != nil {
			if guarded {
				if relErr := guard.Release(ctx, d.ShopDomain, d.WebhookID); relErr != nil && logg != nil {
					logg.Error(ctx, "release webhook delivery", relErr)
				}
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, res)
	}
}
