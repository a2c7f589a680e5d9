package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/colondancer/raffle-bee/api/controllers"
	webhookcontrollers "github.com/colondancer/raffle-bee/api/controllers/webhooks"
	"github.com/colondancer/raffle-bee/api/middleware"
	"github.com/colondancer/raffle-bee/internal/entries"
	"github.com/colondancer/raffle-bee/internal/merchants"
	"github.com/colondancer/raffle-bee/internal/prizepool"
	"github.com/colondancer/raffle-bee/internal/qualification"
	shopifywebhook "github.com/colondancer/raffle-bee/internal/webhooks/shopify"
	"github.com/colondancer/raffle-bee/pkg/config"
	"github.com/colondancer/raffle-bee/pkg/db"
	"github.com/colondancer/raffle-bee/pkg/logger"
	"github.com/colondancer/raffle-bee/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	gatherer prometheus.Gatherer,
	merchantService merchants.Service,
	qualificationService *qualification.Service,
	entryService *entries.Service,
	poolService *prizepool.Service,
	webhookService *shopifywebhook.Service,
	webhookGuard *shopifywebhook.DeliveryGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Shopify posts every topic here; the topic header picks the handler.
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middleware.ShopifyHMAC(cfg.Shopify.APISecret, logg))
		r.Post("/*", webhookcontrollers.ShopifyWebhook(webhookService, webhookGuard, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.Shopify.StorefrontOrigins))
		r.Post("/cart-check", controllers.CartCheck(qualificationService, logg))
		r.Post("/opt-in", controllers.OptIn(entryService, logg))
		r.Get("/prize-pool", controllers.PrizePool(poolService, logg))
	})

	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.ShopContext(logg))
		r.Get("/merchant", controllers.AdminMerchant(merchantService, logg))
		r.Put("/settings", controllers.AdminSettings(merchantService, logg))
		r.Get("/entries", controllers.AdminEntries(entryService, logg))
		r.Get("/stats", controllers.AdminStats(entryService, logg))
	})

	return r
}
