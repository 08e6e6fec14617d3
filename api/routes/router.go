package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoplane/shoplane-backend/api/controllers"
	cartcontrollers "github.com/shoplane/shoplane-backend/api/controllers/cart"
	"github.com/shoplane/shoplane-backend/api/middleware"
	"github.com/shoplane/shoplane-backend/internal/cart"
	"github.com/shoplane/shoplane-backend/pkg/config"
	"github.com/shoplane/shoplane-backend/pkg/logger"
	"github.com/shoplane/shoplane-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store redis.Pinger,
	cartService cart.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, store))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/carts", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Post("/", cartcontrollers.Create(cartService, logg))

		r.Route("/{cartId}", func(r chi.Router) {
			r.Get("/", cartcontrollers.Get(cartService, logg))
			r.Delete("/", cartcontrollers.Delete(cartService, logg))

			r.Post("/items", cartcontrollers.AddItem(cartService, logg))
			r.Delete("/items", cartcontrollers.Clear(cartService, logg))
			r.Patch("/items/{productId}", cartcontrollers.UpdateItem(cartService, logg))
			r.Delete("/items/{productId}", cartcontrollers.RemoveItem(cartService, logg))

			r.Post("/discount", cartcontrollers.ApplyDiscount(cartService, logg))
			r.Post("/validate", cartcontrollers.Validate(cartService, logg))
			r.Post("/checkout", cartcontrollers.Checkout(cartService, logg))
		})
	})

	r.Route("/api/v1/customers/me", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/ping", controllers.PrivatePing())
		r.Get("/carts", cartcontrollers.ListMine(cartService, logg))
	})

	return r
}
