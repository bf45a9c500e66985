package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/minjaecho/commerce-pulse/internal/cron"
	"github.com/minjaecho/commerce-pulse/internal/handled"
	"github.com/minjaecho/commerce-pulse/internal/metrics"
	"github.com/minjaecho/commerce-pulse/internal/ranking"
	"github.com/minjaecho/commerce-pulse/pkg/config"
	"github.com/minjaecho/commerce-pulse/pkg/db"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
	pkgmetrics "github.com/minjaecho/commerce-pulse/pkg/metrics"
	"github.com/minjaecho/commerce-pulse/pkg/migrate"
	"github.com/minjaecho/commerce-pulse/pkg/outbox"
	"github.com/minjaecho/commerce-pulse/pkg/outbox/registry"
	"github.com/minjaecho/commerce-pulse/pkg/pubsub"
	"github.com/minjaecho/commerce-pulse/pkg/redis"
)

const lockNameFormat = "cron-worker:%s:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	metricsRepo := metrics.NewRepository(dbClient.DB())
	outboxRepo := outbox.NewRepository(dbClient.DB())

	cronRegistry := cron.NewRegistry()

	rankingStore, err := ranking.NewStore(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create ranking store", err)
		os.Exit(1)
	}

	promoteJob, err := cron.NewRankingPromoteJob(cron.RankingPromoteJobParams{
		Logger:      logg,
		DB:          dbClient,
		MetricsRepo: metricsRepo,
		Store:       rankingStore,
		Config:      cfg.Ranking,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ranking promote job", err)
		os.Exit(1)
	}
	cronRegistry.Register(promoteJob)

	cleanupJob, err := cron.NewDailyMetricsCleanupJob(cron.DailyMetricsCleanupJobParams{
		Logger:      logg,
		DB:          dbClient,
		MetricsRepo: metricsRepo,
		HandledRepo: handled.NewRepository(dbClient.DB()),
		Retention:   cfg.Retention.DailyMetricsDays,
		Cadence:     cfg.Retention.CleanupInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create daily metrics cleanup job", err)
		os.Exit(1)
	}
	cronRegistry.Register(cleanupJob)

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Outbox.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	cronRegistry.Register(retentionJob)

	if cfg.Outbox.RequeueEnabled {
		eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
		if err != nil {
			logg.Error(context.Background(), "failed to create event registry", err)
			os.Exit(1)
		}
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()

		requeueJob, err := cron.NewOutboxRequeueJob(cron.OutboxRequeueJobParams{
			Logger:      logg,
			Repository:  outboxRepo,
			Registry:    eventRegistry,
			PubSub:      pubsubClient,
			BatchSize:   cfg.Outbox.BatchSize,
			MaxAttempts: cfg.Outbox.MaxAttempts,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create outbox requeue job", err)
			os.Exit(1)
		}
		cronRegistry.Register(requeueJob)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cronRegistry,
		Locks: func(jobName string) (cron.Lock, error) {
			return cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env, jobName)), 0)
		},
		Metrics: pkgmetrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env, job string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockNameFormat, env, job)
}
