package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minjaecho/commerce-pulse/api/controllers"
	"github.com/minjaecho/commerce-pulse/api/middleware"
	"github.com/minjaecho/commerce-pulse/internal/likes"
	"github.com/minjaecho/commerce-pulse/internal/metrics"
	"github.com/minjaecho/commerce-pulse/internal/orders"
	"github.com/minjaecho/commerce-pulse/internal/products"
	"github.com/minjaecho/commerce-pulse/internal/ranking"
	"github.com/minjaecho/commerce-pulse/pkg/config"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Readiness   map[string]controllers.Pinger
	Products    products.Service
	Likes       likes.Service
	Orders      orders.Service
	Rankings    ranking.Service
	MetricsRepo *metrics.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products/{productId}", func(r chi.Router) {
			r.Get("/", controllers.ProductDetail(deps.Products, logg))
			r.Get("/metrics", controllers.ProductMetrics(deps.MetricsRepo, logg))
			r.Post("/view", controllers.TrackProductView(deps.Products, logg))
			r.Post("/like", controllers.LikeProduct(deps.Likes, logg))
			r.Delete("/like", controllers.UnlikeProduct(deps.Likes, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
		})

		r.Route("/rankings", func(r chi.Router) {
			r.Get("/", controllers.RankingTop(deps.Rankings, logg))
			r.Get("/page", controllers.RankingPage(deps.Rankings, logg))
			r.Get("/{productId}", controllers.RankingLookup(deps.Rankings, logg))
		})
	})

	return r
}
