package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/internal/metrics"
	"github.com/minjaecho/commerce-pulse/internal/ranking"
	"github.com/minjaecho/commerce-pulse/pkg/config"
	"github.com/minjaecho/commerce-pulse/pkg/db/models"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
)

const defaultPromoteInterval = 5 * time.Minute

type rankingStore interface {
	ApplyIncrements(ctx context.Context, date time.Time, inc ranking.Increments, ttl time.Duration) error
}

// RankingPromoteJobParams configure the promoter job.
type RankingPromoteJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	MetricsRepo *metrics.Repository
	Store       rankingStore
	Config      config.RankingConfig
	Now         func() time.Time
}

// NewRankingPromoteJob builds the job that drains unprocessed daily
// deltas into the weighted Redis leaderboards.
func NewRankingPromoteJob(params RankingPromoteJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.MetricsRepo == nil {
		return nil, fmt.Errorf("metrics repository required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("ranking store required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &rankingPromoteJob{
		logg:        params.Logger,
		db:          params.DB,
		metricsRepo: params.MetricsRepo,
		store:       params.Store,
		cfg:         params.Config,
		now:         now,
	}, nil
}

type rankingPromoteJob struct {
	logg        *logger.Logger
	db          txRunner
	metricsRepo *metrics.Repository
	store       rankingStore
	cfg         config.RankingConfig
	now         func() time.Time
}

func (j *rankingPromoteJob) Name() string { return "ranking-promote" }

func (j *rankingPromoteJob) Interval() time.Duration {
	if j.cfg.PromoteInterval <= 0 {
		return defaultPromoteInterval
	}
	return j.cfg.PromoteInterval
}

// Run reads the current day's unprocessed delta rows, applies weighted
// score increments to Redis, and drains the promoted amounts inside the
// same database transaction as the read.
func (j *rankingPromoteJob) Run(ctx context.Context) error {
	date := j.now().UTC()
	ttl := time.Duration(j.cfg.TTLDays) * 24 * time.Hour

	var promoted int
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.metricsRepo.WithTx(tx)
		rows, err := repo.FetchUnprocessed(ctx, date)
		if err != nil {
			return fmt.Errorf("fetch unprocessed deltas: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		promoted = len(rows)

		inc := j.buildIncrements(rows)
		if err := j.store.ApplyIncrements(ctx, date, inc, ttl); err != nil {
			return fmt.Errorf("apply ranking increments: %w", err)
		}
		return repo.DrainProcessed(ctx, rows, j.now().UTC())
	})
	if err != nil {
		return fmt.Errorf("ranking promote: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"metric_date":  metrics.DateOnly(date).Format("2006-01-02"),
		"rows_drained": promoted,
	})
	if promoted == 0 {
		j.logg.Info(logCtx, "no pending deltas to promote")
		return nil
	}
	j.logg.Info(logCtx, "ranking promotion complete")
	return nil
}

// buildIncrements turns daily rows into weighted per-family score maps.
// The composite score sums every metric's weighted contribution so the
// all-family key is incremented once per product.
func (j *rankingPromoteJob) buildIncrements(rows []models.ProductMetricsDaily) ranking.Increments {
	inc := ranking.Increments{
		Like:      make(map[string]float64),
		View:      make(map[string]float64),
		Order:     make(map[string]float64),
		Composite: make(map[string]float64),
	}
	for _, row := range rows {
		member := row.ProductID.String()
		composite := 0.0
		if row.LikeDelta != 0 {
			score := float64(row.LikeDelta) * j.cfg.LikeWeight
			inc.Like[member] += score
			composite += score
		}
		if row.ViewDelta != 0 {
			score := float64(row.ViewDelta) * j.cfg.ViewWeight
			inc.View[member] += score
			composite += score
		}
		if row.OrderDelta != 0 {
			score := float64(row.OrderDelta) * j.cfg.OrderWeight
			inc.Order[member] += score
			composite += score
		}
		if composite != 0 {
			inc.Composite[member] += composite
		}
	}
	return inc
}
