package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dperea/storefront-backend/api/controllers"
	"github.com/dperea/storefront-backend/api/middleware"
	authsvc "github.com/dperea/storefront-backend/internal/auth"
	"github.com/dperea/storefront-backend/internal/notifications"
	"github.com/dperea/storefront-backend/internal/orders"
	"github.com/dperea/storefront-backend/internal/products"
	"github.com/dperea/storefront-backend/pkg/config"
	"github.com/dperea/storefront-backend/pkg/db"
	"github.com/dperea/storefront-backend/pkg/enums"
	"github.com/dperea/storefront-backend/pkg/logger"
	"github.com/dperea/storefront-backend/pkg/metrics"
	"github.com/dperea/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	authService authsvc.Service,
	productService products.Service,
	orderService orders.Service,
	hub *notifications.Hub,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	loginThrottle := middleware.LoginThrottle(cfg.AuthRateLimit)
	registerThrottle := middleware.RegisterThrottle(cfg.AuthRateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(registerThrottle.Middleware(redisClient, logg)).Post("/register", controllers.Register(authService, logg))
		r.With(loginThrottle.Middleware(redisClient, logg)).Post("/login", controllers.Login(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.RoleUser)).Post("/", controllers.PlaceOrder(orderService, logg))
			r.With(middleware.RequireRole(logg, enums.RoleSuperAdmin)).Get("/", controllers.ListOrders(orderService, logg))
			r.Get("/my-orders", controllers.ListMyOrders(orderService, logg))
			r.Put("/{orderId}", controllers.UpdateOrder(orderService, logg))
			r.With(middleware.RequireRole(logg, enums.RoleSuperAdmin)).Patch("/{orderId}/status", controllers.ChangeOrderStatus(orderService, logg))
			r.Patch("/{orderId}/cancel", controllers.CancelOrder(orderService, logg))
		})

		r.Get("/events", controllers.StreamOrderEvents(hub, logg))
	})

	// catalog reads are public; writes and the creator's own listing are not
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(productService, logg))
		r.Get("/search", controllers.SearchProducts(productService, logg))
		r.Get("/{productId}", controllers.GetProduct(productService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg), middleware.RequirePrivileged(logg))
			r.Get("/my-products", controllers.ListMyProducts(productService, logg))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Put("/{productId}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(productService, logg))
		})
	})

	return r
}
