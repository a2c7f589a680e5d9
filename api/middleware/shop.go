package middleware

import (
	"net/http"
	"strings"

	"github.com/colondancer/raffle-bee/api/responses"
	"github.com/colondancer/raffle-bee/api/validators"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

const maxShopDomainLen = 255

// ShopContext requires the `shop` query parameter on admin routes and stores
// it, lowercased, in the request context.
func ShopContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shop := strings.ToLower(validators.SanitizeString(r.URL.Query().Get("shop"), maxShopDomainLen))
			if shop == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop query parameter is required").
					WithDetails(map[string]any{"field": "shop"}))
				return
			}
			ctx := WithShopDomain(r.Context(), shop)
			if logg != nil {
				ctx = logg.WithShopDomain(ctx, shop)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
