package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/minjaecho/commerce-pulse/api/controllers"
	"github.com/minjaecho/commerce-pulse/api/routes"
	"github.com/minjaecho/commerce-pulse/internal/likes"
	"github.com/minjaecho/commerce-pulse/internal/metrics"
	"github.com/minjaecho/commerce-pulse/internal/orders"
	"github.com/minjaecho/commerce-pulse/internal/products"
	"github.com/minjaecho/commerce-pulse/internal/ranking"
	"github.com/minjaecho/commerce-pulse/pkg/config"
	"github.com/minjaecho/commerce-pulse/pkg/db"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
	"github.com/minjaecho/commerce-pulse/pkg/migrate"
	"github.com/minjaecho/commerce-pulse/pkg/outbox"
	"github.com/minjaecho/commerce-pulse/pkg/redis"
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

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	productsRepo := products.NewRepository(dbClient.DB())

	productsService, err := products.NewService(products.ServiceParams{
		Logger: logg,
		DB:     dbClient,
		Repo:   productsRepo,
		Outbox: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	likesService, err := likes.NewService(likes.ServiceParams{
		DB:       dbClient,
		Repo:     likes.NewRepository(dbClient.DB()),
		Products: productsRepo,
		Outbox:   outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create like service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		DB:       dbClient,
		Repo:     orders.NewRepository(dbClient.DB()),
		Products: productsRepo,
		Outbox:   outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	rankingStore, err := ranking.NewStore(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create ranking store", err)
		os.Exit(1)
	}
	rankingService, err := ranking.NewService(ranking.ServiceParams{
		Store: rankingStore,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ranking service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config: cfg,
			Logger: logg,
			Readiness: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Products:    productsService,
			Likes:       likesService,
			Orders:      ordersService,
			Rankings:    rankingService,
			MetricsRepo: metrics.NewRepository(dbClient.DB()),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
