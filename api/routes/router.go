package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stylehaven-za/stylehaven-backend/api/controllers"
	"github.com/stylehaven-za/stylehaven-backend/api/middleware"
	cartsvc "github.com/stylehaven-za/stylehaven-backend/internal/cart"
	checkoutsvc "github.com/stylehaven-za/stylehaven-backend/internal/checkout"
	ordersvc "github.com/stylehaven-za/stylehaven-backend/internal/orders"
	payfastsvc "github.com/stylehaven-za/stylehaven-backend/internal/payments/payfast"
	productsvc "github.com/stylehaven-za/stylehaven-backend/internal/products"
	usersvc "github.com/stylehaven-za/stylehaven-backend/internal/users"
	wishlistsvc "github.com/stylehaven-za/stylehaven-backend/internal/wishlist"
	"github.com/stylehaven-za/stylehaven-backend/pkg/config"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
	"github.com/stylehaven-za/stylehaven-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsRegistry *prometheus.Registry,
	productService productsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	payfastService payfastsvc.Service,
	orderService ordersvc.Service,
	userService usersvc.Service,
	wishlistService wishlistsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(productService, logg))
			r.Get("/featured", controllers.ProductFeatured(productService, logg))
			r.Get("/{productId}", controllers.ProductDetail(productService, logg))
			r.Post("/", controllers.ProductCreate(productService, logg))
			r.Put("/{productId}", controllers.ProductUpdate(productService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireCartToken(logg))
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{lineId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{lineId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.RequireCartToken(logg))
			r.Get("/quote", controllers.CheckoutQuote(checkoutService, logg))
		})

		r.Route("/order", func(r chi.Router) {
			// The notify webhook is called by the gateway, never the storefront,
			// so it sits outside the cart token group.
			r.Post("/payfast/notify", controllers.PayFastNotify(payfastService, logg))
			r.With(middleware.RequireCartToken(logg)).
				Post("/payfast/initiate-payment", controllers.InitiatePayment(checkoutService, logg))

			r.Get("/get", controllers.OrderList(orderService, logg))
			r.Get("/get/{orderID}", controllers.OrderDetail(orderService, logg))
			r.Put("/update-status/{orderID}", controllers.OrderUpdateStatus(orderService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
				Post("/login", controllers.UserLogin(userService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
				Post("/register", controllers.UserRegister(userService, logg))
			r.Get("/customers", controllers.UserCustomers(userService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(middleware.RequireCartToken(logg))
			r.Get("/", controllers.WishlistFetch(wishlistService, logg))
			r.Post("/", controllers.WishlistAdd(wishlistService, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(wishlistService, logg))
		})
	})

	return r
}
