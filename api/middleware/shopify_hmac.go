package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/colondancer/raffle-bee/api/responses"
	shopifywebhook "github.com/colondancer/raffle-bee/internal/webhooks/shopify"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

const (
	ShopifyHmacHeader = "X-Shopify-Hmac-Sha256"
	maxWebhookBody    = 1 << 20
)

// ShopifyHMAC rejects webhook requests whose body was not signed with the
// app secret. The verified body is restored for the next handler.
func ShopifyHMAC(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			_ = r.Body.Close()
			if len(body) > maxWebhookBody {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeTooLarge, "webhook body too large").
					WithDetails(map[string]any{"limitBytes": maxWebhookBody}))
				return
			}

			if !shopifywebhook.Verify(body, r.Header.Get(ShopifyHmacHeader), secret) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature invalid"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
