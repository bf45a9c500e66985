package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/minjaecho/commerce-pulse/internal/collector"
	"github.com/minjaecho/commerce-pulse/internal/consumers/events"
	"github.com/minjaecho/commerce-pulse/internal/handled"
	"github.com/minjaecho/commerce-pulse/internal/metrics"
	"github.com/minjaecho/commerce-pulse/pkg/config"
	"github.com/minjaecho/commerce-pulse/pkg/db"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
	"github.com/minjaecho/commerce-pulse/pkg/migrate"
	"github.com/minjaecho/commerce-pulse/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "metrics-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "metrics-worker"

	logg = logger.New(logger.Options{
		ServiceName: "metrics-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database client", err)
		}
	}()

	err = migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	handler, err := collector.NewHandler(collector.HandlerParams{
		Logger:      logg,
		DB:          dbClient,
		HandledRepo: handled.NewRepository(dbClient.DB()),
		MetricsRepo: metrics.NewRepository(dbClient.DB()),
	})
	requireResource(ctx, logg, "collector handler", err)

	families := []struct {
		name         string
		subscription *gcppubsub.Subscriber
	}{
		{"like-added", pubsubClient.LikeAddedSubscription()},
		{"like-removed", pubsubClient.LikeRemovedSubscription()},
		{"view-increased", pubsubClient.ViewIncreasedSubscription()},
		{"order-created", pubsubClient.OrderCreatedSubscription()},
	}

	consumers := make([]*events.Consumer, 0, len(families))
	for _, family := range families {
		if family.subscription == nil {
			requireResource(ctx, logg, family.name+" subscription", errors.New("subscription not configured"))
		}
		family.subscription.ReceiveSettings.NumGoroutines = cfg.Consumer.Parallelism

		consumer, err := events.NewConsumer(events.ConsumerParams{
			Logger:        logg,
			Subscription:  family.subscription,
			Handler:       handler,
			Family:        family.name,
			BatchSize:     cfg.Consumer.BatchSize,
			FlushInterval: cfg.Consumer.FlushInterval,
		})
		requireResource(ctx, logg, family.name+" consumer", err)
		consumers = append(consumers, consumer)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"parallelism": cfg.Consumer.Parallelism,
	})
	logg.Info(runCtx, "metrics worker ready")

	group, groupCtx := errgroup.WithContext(runCtx)
	for _, consumer := range consumers {
		group.Go(func() error {
			return consumer.Run(groupCtx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "metrics worker failed", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "metrics worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
