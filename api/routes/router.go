package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/narissarah/wishcraft/api/controllers"
	webhookcontrollers "github.com/narissarah/wishcraft/api/controllers/webhooks"
	"github.com/narissarah/wishcraft/api/middleware"
	"github.com/narissarah/wishcraft/internal/activity"
	"github.com/narissarah/wishcraft/internal/contributions"
	"github.com/narissarah/wishcraft/internal/purchases"
	"github.com/narissarah/wishcraft/internal/registry"
	shopifywebhook "github.com/narissarah/wishcraft/internal/webhooks/shopify"
	"github.com/narissarah/wishcraft/pkg/config"
	"github.com/narissarah/wishcraft/pkg/db"
	"github.com/narissarah/wishcraft/pkg/logger"
	"github.com/narissarah/wishcraft/pkg/pubsub"
	"github.com/narissarah/wishcraft/pkg/redis"
)

type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	PubSub        *pubsub.Client
	Registries    registry.Service
	Purchases     purchases.Service
	Contributions contributions.Service
	Activities    activity.Service
	Reconciler    *shopifywebhook.Service
	WebhookGuard  *shopifywebhook.IdempotencyGuard
	Metrics       *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, controllers.ReadyDeps(p.DB, p.Redis, p.PubSub)))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/shopify/orders-create", webhookcontrollers.ShopifyOrdersCreate(p.Reconciler, p.Config.Shopify.WebhookSecret, p.WebhookGuard, p.Logger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/registries", func(r chi.Router) {
			r.Post("/", controllers.RegistryCreate(p.Registries, p.Logger))
			r.Get("/", controllers.RegistryList(p.Registries, p.Logger))
			r.Get("/by-slug/{slug}", controllers.RegistryBySlug(p.Registries, p.Logger))
			r.Route("/{registryId}", func(r chi.Router) {
				r.Get("/", controllers.RegistryDetail(p.Registries, p.Logger))
				r.Get("/items", controllers.RegistryListItems(p.Registries, p.Logger))
				r.Post("/items", controllers.RegistryAddItem(p.Registries, p.Logger))
				r.Delete("/items/{itemId}", controllers.RegistryRemoveItem(p.Registries, p.Logger))
				r.Get("/purchases", controllers.PurchaseList(p.Purchases, p.Logger))
				r.Get("/activities", controllers.ActivityList(p.Activities, p.Logger))
			})
		})

		r.Route("/purchases/{purchaseId}", func(r chi.Router) {
			r.Post("/contributions", controllers.ContributionAdd(p.Contributions, p.Logger))
			r.Get("/contributions", controllers.ContributionList(p.Contributions, p.Logger))
			r.Get("/completion", controllers.ContributionCompletion(p.Contributions, p.Logger))
		})

		r.Patch("/contributions/{contributionId}/status", controllers.ContributionMarkStatus(p.Contributions, p.Logger))
	})

	return r
}
