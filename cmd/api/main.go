package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/stylehaven-za/stylehaven-backend/api"
	"github.com/stylehaven-za/stylehaven-backend/api/routes"
	"github.com/stylehaven-za/stylehaven-backend/internal/cart"
	"github.com/stylehaven-za/stylehaven-backend/internal/checkout"
	"github.com/stylehaven-za/stylehaven-backend/internal/orders"
	"github.com/stylehaven-za/stylehaven-backend/internal/payments/payfast"
	product "github.com/stylehaven-za/stylehaven-backend/internal/products"
	"github.com/stylehaven-za/stylehaven-backend/internal/users"
	"github.com/stylehaven-za/stylehaven-backend/internal/wishlist"
	"github.com/stylehaven-za/stylehaven-backend/pkg/config"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
	"github.com/stylehaven-za/stylehaven-backend/pkg/metrics"
	"github.com/stylehaven-za/stylehaven-backend/pkg/migrate"
	"github.com/stylehaven-za/stylehaven-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	taxRate, err := cfg.Commerce.TaxRateDecimal()
	if err != nil {
		logg.Error(context.Background(), "invalid tax rate", err)
		os.Exit(1)
	}

	productService, err := product.NewService(
		product.NewRepository(dbClient.DB()),
		dbClient,
		cfg.Commerce.LowStockThreshold,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(
		cart.NewRepository(dbClient.DB()),
		dbClient,
		productService,
		cfg.Commerce.CartMaxDistinct,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	payfastService, err := payfast.NewService(
		payfast.NewRepository(dbClient.DB()),
		dbClient,
		orderService,
		redisClient,
		cfg.PayFast,
		logg,
		paymentMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(cartService, payfastService, taxRate, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.NewRepository(dbClient.DB()), dbClient, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.NewRepository(dbClient.DB()), productService)
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		registry,
		productService,
		cartService,
		checkoutService,
		payfastService,
		orderService,
		userService,
		wishlistService,
	))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
