package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/omniwallet/walletsync/pkg/model"
	"github.com/omniwallet/walletsync/pkg/retry"
)

// DailyTotals aggregates successful canonical transactions into per-(date,
// chain) rows for the window [start, end). External metrics are filled in by
// the rollup aggregator, not here.
func (s *Store) DailyTotals(ctx context.Context, start, end time.Time) ([]*model.DailyStat, error) {
	rows, err := s.Client.Query(ctx, `
		SELECT
			DATE(created_at) AS day,
			from_chain,
			COUNT(*) FILTER (WHERE type = 'SWAP'),
			COALESCE(SUM(amount_usd) FILTER (WHERE type = 'SWAP'), 0),
			COALESCE(SUM(fee_usd) FILTER (WHERE type = 'SWAP'), 0),
			COUNT(*) FILTER (WHERE type = 'SEND'),
			COALESCE(SUM(amount_usd) FILTER (WHERE type = 'SEND'), 0),
			COUNT(*) FILTER (WHERE type = 'CASH'),
			COALESCE(SUM(amount_usd) FILTER (WHERE type = 'CASH'), 0),
			COALESCE(SUM(fee_usd) FILTER (WHERE type = 'CASH'), 0),
			COUNT(*) FILTER (WHERE type = 'DAPP'),
			COUNT(DISTINCT from_user),
			COALESCE(SUM(fee_usd), 0)
		FROM transactions_cache
		WHERE created_at >= $1 AND created_at < $2 AND status = 'SUCCESS'
		GROUP BY day, from_chain
		ORDER BY day, from_chain
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily totals: %w", err)
	}
	defer rows.Close()

	var stats []*model.DailyStat
	for rows.Next() {
		st := &model.DailyStat{}
		if err := rows.Scan(
			&st.Date, &st.ChainName,
			&st.SwapTransactions, &st.SwapVolume, &st.SwapRevenue,
			&st.SendTransactions, &st.SendVolume,
			&st.CashTransactions, &st.CashVolume, &st.CashRevenue,
			&st.DappConnections, &st.ActiveUsers, &st.Revenue,
		); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return stats, nil
}

// UpsertDailyStats overwrites per-(date, chain) aggregate rows. Re-running a
// day with identical inputs produces identical rows.
func (s *Store) UpsertDailyStats(ctx context.Context, stats []*model.DailyStat) error {
	if len(stats) == 0 {
		return nil
	}

	err := retry.WithBackoff(ctx, s.writeRetry(), s.Logger, "upsert_daily_stats", func() error {
		return s.Client.BeginFunc(ctx, func(tx pgx.Tx) error {
			b := &pgx.Batch{}
			for _, st := range stats {
				b.Queue(`
					INSERT INTO daily_stats (
						date, chain_name,
						swap_transactions, swap_volume, swap_revenue,
						send_transactions, send_volume,
						cash_transactions, cash_volume, cash_revenue,
						dapp_connections, referrals, agents_deployed,
						active_users, revenue
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
					ON CONFLICT (date, chain_name) DO UPDATE SET
						swap_transactions = EXCLUDED.swap_transactions,
						swap_volume = EXCLUDED.swap_volume,
						swap_revenue = EXCLUDED.swap_revenue,
						send_transactions = EXCLUDED.send_transactions,
						send_volume = EXCLUDED.send_volume,
						cash_transactions = EXCLUDED.cash_transactions,
						cash_volume = EXCLUDED.cash_volume,
						cash_revenue = EXCLUDED.cash_revenue,
						dapp_connections = EXCLUDED.dapp_connections,
						referrals = EXCLUDED.referrals,
						agents_deployed = EXCLUDED.agents_deployed,
						active_users = EXCLUDED.active_users,
						revenue = EXCLUDED.revenue
				`,
					st.Date, st.ChainName,
					st.SwapTransactions, st.SwapVolume, st.SwapRevenue,
					st.SendTransactions, st.SendVolume,
					st.CashTransactions, st.CashVolume, st.CashRevenue,
					st.DappConnections, st.Referrals, st.AgentsDeployed,
					st.ActiveUsers, st.Revenue,
				)
			}
			return tx.SendBatch(ctx, b).Close()
		})
	})
	if err != nil {
		return fmt.Errorf("upsert daily stats: %w", err)
	}
	return nil
}

// WeeklySwapRevenue computes per-week swap revenue (value) and swap counts
// (quantity) from successful swaps at or after start.
func (s *Store) WeeklySwapRevenue(ctx context.Context, start time.Time) ([]*model.WeeklyStat, error) {
	rows, err := s.Client.Query(ctx, `
		SELECT
			DATE_TRUNC('week', created_at)::date AS week_start,
			COALESCE(SUM(fee_usd), 0),
			COUNT(*)
		FROM transactions_cache
		WHERE type = 'SWAP' AND status = 'SUCCESS' AND created_at >= $1
		GROUP BY week_start
		ORDER BY week_start
	`, start)
	if err != nil {
		return nil, fmt.Errorf("aggregate weekly swap revenue: %w", err)
	}
	defer rows.Close()

	var stats []*model.WeeklyStat
	for rows.Next() {
		st := &model.WeeklyStat{Metric: model.MetricSwapRevenue}
		if err := rows.Scan(&st.WeekStart, &st.Value, &st.Quantity); err != nil {
			return nil, fmt.Errorf("scan weekly swap revenue: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weekly swap revenue: %w", err)
	}
	return stats, nil
}

// WeeklyRevenuePerActiveUser derives the average revenue per distinct active
// user for one week starting at weekStart.
func (s *Store) WeeklyRevenuePerActiveUser(ctx context.Context, weekStart time.Time) (*model.WeeklyStat, error) {
	var totalFees float64
	var activeUsers int64
	err := s.Client.QueryRow(ctx, `
		SELECT COALESCE(SUM(fee_usd), 0), COUNT(DISTINCT from_user)
		FROM transactions_cache
		WHERE status = 'SUCCESS' AND created_at >= $1 AND created_at < $2
	`, weekStart, weekStart.AddDate(0, 0, 7)).Scan(&totalFees, &activeUsers)
	if err != nil {
		return nil, fmt.Errorf("aggregate weekly avg revenue: %w", err)
	}

	st := &model.WeeklyStat{
		WeekStart: weekStart,
		Metric:    model.MetricAvgRevPerActiveUser,
		Quantity:  activeUsers,
	}
	if activeUsers > 0 {
		st.Value = totalFees / float64(activeUsers)
	}
	return st, nil
}

// UpsertWeeklyStats overwrites per-(week-start, metric) aggregate rows.
func (s *Store) UpsertWeeklyStats(ctx context.Context, stats []*model.WeeklyStat) error {
	if len(stats) == 0 {
		return nil
	}

	err := retry.WithBackoff(ctx, s.writeRetry(), s.Logger, "upsert_weekly_stats", func() error {
		return s.Client.BeginFunc(ctx, func(tx pgx.Tx) error {
			b := &pgx.Batch{}
			for _, st := range stats {
				b.Queue(`
					INSERT INTO weekly_stats (week_start_date, metric, value, quantity)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (week_start_date, metric)
					DO UPDATE SET value = EXCLUDED.value, quantity = EXCLUDED.quantity
				`, st.WeekStart, st.Metric, st.Value, st.Quantity)
			}
			return tx.SendBatch(ctx, b).Close()
		})
	})
	if err != nil {
		return fmt.Errorf("upsert weekly stats: %w", err)
	}
	return nil
}
