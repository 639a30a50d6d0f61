package syncer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omniwallet/walletsync/pkg/model"
)

const (
	metricReferrals      = "user/referrals"
	metricAgentsDeployed = "agents/deployed"
)

// SyncDailyStats recomputes per-(date, chain) aggregates from the start of
// the watermark's day, so today's partial row is overwritten on every run.
// External metrics enrich each row but never fail the rollup.
func (s *Syncer) SyncDailyStats(ctx context.Context) error {
	wm, err := s.cache.Watermark(ctx, model.SectionDailyStats)
	if err != nil {
		return fmt.Errorf("read daily stats watermark: %w", err)
	}

	start := startOfDay(wm)
	now := time.Now().UTC()

	stats, err := s.cache.DailyTotals(ctx, start, now)
	if err != nil {
		return fmt.Errorf("aggregate daily totals: %w", err)
	}
	if len(stats) == 0 {
		s.logger.Info("no transaction data for daily stats", zap.Time("start", start))
		return s.cache.Advance(ctx, model.SectionDailyStats, now)
	}

	// Chain rows on the same date share the day's external metrics.
	type dayMetrics struct {
		referrals int64
		agents    int64
	}
	byDay := make(map[time.Time]dayMetrics)
	for _, st := range stats {
		day := startOfDay(st.Date)
		m, ok := byDay[day]
		if !ok {
			m = dayMetrics{
				referrals: s.fetchDayMetric(ctx, metricReferrals, day),
				agents:    s.fetchDayMetric(ctx, metricAgentsDeployed, day),
			}
			byDay[day] = m
		}
		st.Referrals = m.referrals
		st.AgentsDeployed = m.agents
	}

	if err := s.cache.UpsertDailyStats(ctx, stats); err != nil {
		return fmt.Errorf("upsert daily stats: %w", err)
	}
	if err := s.cache.Advance(ctx, model.SectionDailyStats, now); err != nil {
		return fmt.Errorf("advance daily stats watermark: %w", err)
	}

	s.logger.Info("daily stats synced", zap.Int("rows", len(stats)), zap.Time("start", start))
	return nil
}

func (s *Syncer) fetchDayMetric(ctx context.Context, name string, day time.Time) int64 {
	v, err := s.metrics.FetchMetric(ctx, name, day, day)
	if err != nil {
		s.logger.Warn("external metric unavailable",
			zap.String("metric", name),
			zap.Time("day", day),
			zap.Error(err))
		return 0
	}
	return int64(v)
}

// SyncWeeklyData recomputes the per-week metrics: swap revenue with counts,
// and average revenue per active user for every week from the watermark's
// week through the current one.
func (s *Syncer) SyncWeeklyData(ctx context.Context) error {
	wm, err := s.cache.Watermark(ctx, model.SectionWeeklyData)
	if err != nil {
		return fmt.Errorf("read weekly data watermark: %w", err)
	}

	now := time.Now().UTC()
	start := weekStart(wm.Add(-s.cfg.WeeklyOverlap))

	stats, err := s.cache.WeeklySwapRevenue(ctx, start)
	if err != nil {
		return fmt.Errorf("aggregate weekly swap revenue: %w", err)
	}

	for ws := start; !ws.After(now); ws = ws.AddDate(0, 0, 7) {
		st, err := s.cache.WeeklyRevenuePerActiveUser(ctx, ws)
		if err != nil {
			return fmt.Errorf("aggregate weekly revenue per user for %s: %w",
				ws.Format("2006-01-02"), err)
		}
		stats = append(stats, st)
	}

	if err := s.cache.UpsertWeeklyStats(ctx, stats); err != nil {
		return fmt.Errorf("upsert weekly stats: %w", err)
	}
	if err := s.cache.Advance(ctx, model.SectionWeeklyData, now); err != nil {
		return fmt.Errorf("advance weekly data watermark: %w", err)
	}

	s.logger.Info("weekly data synced", zap.Int("rows", len(stats)), zap.Time("start", start))
	return nil
}
