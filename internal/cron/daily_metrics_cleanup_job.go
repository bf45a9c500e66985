package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/internal/handled"
	"github.com/minjaecho/commerce-pulse/internal/metrics"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
)

const (
	defaultDailyMetricsRetentionDays = 10
	defaultDailyCleanupInterval      = 24 * time.Hour
)

// DailyMetricsCleanupJobParams configure the daily ledger cleanup job.
type DailyMetricsCleanupJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	MetricsRepo *metrics.Repository
	HandledRepo *handled.Repository
	Retention   int
	Cadence     time.Duration
}

// NewDailyMetricsCleanupJob builds the job that deletes stale daily delta
// rows regardless of their processed state, and prunes the handled-events
// ledger on the same retention window.
func NewDailyMetricsCleanupJob(params DailyMetricsCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.MetricsRepo == nil {
		return nil, fmt.Errorf("metrics repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultDailyMetricsRetentionDays
	}
	cadence := params.Cadence
	if cadence <= 0 {
		cadence = defaultDailyCleanupInterval
	}
	return &dailyMetricsCleanupJob{
		logg:        params.Logger,
		db:          params.DB,
		metricsRepo: params.MetricsRepo,
		handledRepo: params.HandledRepo,
		retention:   retention,
		cadence:     cadence,
		now:         time.Now,
	}, nil
}

type dailyMetricsCleanupJob struct {
	logg        *logger.Logger
	db          txRunner
	metricsRepo *metrics.Repository
	handledRepo *handled.Repository
	retention   int
	cadence     time.Duration
	now         func() time.Time
}

func (j *dailyMetricsCleanupJob) Name() string { return "daily-metrics-cleanup" }

func (j *dailyMetricsCleanupJob) Interval() time.Duration { return j.cadence }

func (j *dailyMetricsCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)

	var errs []error
	if err := j.cleanupDailyRows(ctx, cutoff); err != nil {
		errs = append(errs, err)
	}
	if err := j.cleanupHandledLedger(ctx, cutoff); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *dailyMetricsCleanupJob) cleanupDailyRows(ctx context.Context, cutoff time.Time) error {
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.metricsRepo.WithTx(tx).DeleteDailyBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("daily metrics cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         metrics.DateOnly(cutoff).Format("2006-01-02"),
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "daily metrics cleanup complete")
	return nil
}

func (j *dailyMetricsCleanupJob) cleanupHandledLedger(ctx context.Context, cutoff time.Time) error {
	if j.handledRepo == nil {
		return nil
	}
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.handledRepo.WithTx(tx).DeleteHandledBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("handled ledger cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "handled ledger cleanup complete")
	return nil
}
