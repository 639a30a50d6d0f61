// Package syncer drives the incremental sync pipeline: scan raw activity from
// the operational store, normalize it, and land it in the reporting cache
// together with the daily and weekly rollups. Each section keeps its own
// watermark so a failed section never stalls the others.
package syncer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/omniwallet/walletsync/pkg/config"
	"github.com/omniwallet/walletsync/pkg/metrics"
	"github.com/omniwallet/walletsync/pkg/model"
	"github.com/omniwallet/walletsync/pkg/transform"
)

// ActivitySource reads raw activity from the operational store.
type ActivitySource interface {
	CountActivities(ctx context.Context, start, end time.Time) (int, error)
	ListActivities(ctx context.Context, start, end time.Time, limit, offset int) ([]*model.RawActivityRecord, error)
}

// CacheStore is the reporting-cache surface the pipeline writes through.
type CacheStore interface {
	Watermark(ctx context.Context, section string) (time.Time, error)
	Advance(ctx context.Context, section string, ts time.Time) error

	UpsertTransactions(ctx context.Context, txs []*model.CanonicalTransaction) (int, error)
	MaxCreatedAt(ctx context.Context) (time.Time, error)
	ReclassifySuiFailures(ctx context.Context) (int64, error)

	DailyTotals(ctx context.Context, start, end time.Time) ([]*model.DailyStat, error)
	UpsertDailyStats(ctx context.Context, stats []*model.DailyStat) error
	WeeklySwapRevenue(ctx context.Context, start time.Time) ([]*model.WeeklyStat, error)
	WeeklyRevenuePerActiveUser(ctx context.Context, weekStart time.Time) (*model.WeeklyStat, error)
	UpsertWeeklyStats(ctx context.Context, stats []*model.WeeklyStat) error
}

type Syncer struct {
	logger    *zap.Logger
	cfg       *config.Config
	source    ActivitySource
	cache     CacheStore
	metrics   metrics.Provider
	transform *transform.Transformer
}

func New(
	logger *zap.Logger,
	cfg *config.Config,
	source ActivitySource,
	cache CacheStore,
	provider metrics.Provider,
	tr *transform.Transformer,
) *Syncer {
	return &Syncer{
		logger:    logger,
		cfg:       cfg,
		source:    source,
		cache:     cache,
		metrics:   provider,
		transform: tr,
	}
}

// Run executes every sync section in order. A failing section is logged and
// the run moves on; the joined error is returned so the caller can still see
// the run was not clean.
func (s *Syncer) Run(ctx context.Context) error {
	started := time.Now()
	s.logger.Info("sync run started")

	var errs []error
	for _, section := range []struct {
		name string
		fn   func(context.Context) error
	}{
		{model.SectionTransactions, s.SyncTransactions},
		{model.SectionDailyStats, s.SyncDailyStats},
		{model.SectionWeeklyData, s.SyncWeeklyData},
	} {
		if err := section.fn(ctx); err != nil {
			s.logger.Error("sync section failed",
				zap.String("section", section.name),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		s.logger.Info("sync section finished", zap.String("section", section.name))
	}

	s.logger.Info("sync run completed", zap.Duration("elapsed", time.Since(started)))
	return errors.Join(errs...)
}

// weekStart truncates t to the Monday that opens its week, at midnight UTC.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
}

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
