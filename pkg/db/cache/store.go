// Package cache owns the read-optimized reporting store: canonical
// transactions, sync checkpoints, and the daily/weekly aggregate tables.
package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/omniwallet/walletsync/pkg/db/postgres"
	"github.com/omniwallet/walletsync/pkg/retry"
)

type Store struct {
	Logger *zap.Logger
	Client *postgres.Client

	// BatchSize bounds rows per upsert transaction to keep lock windows short.
	BatchSize int
}

func New(ctx context.Context, logger *zap.Logger, dsn string, batchSize int) (*Store, error) {
	client, err := postgres.New(ctx, logger, dsn, postgres.GetPoolConfigForComponent("cache"))
	if err != nil {
		return nil, fmt.Errorf("connect cache store: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	s := &Store{Logger: logger, Client: &client, BatchSize: batchSize}
	if err := s.initTables(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	s.Client.Close()
}

// writeRetry is the store's policy for transient write conflicts: deadlocks
// roll back and retry a few times with a short fixed backoff, everything else
// surfaces immediately.
func (s *Store) writeRetry() retry.Config {
	return retry.TransientConfig(postgres.IsDeadlock)
}

func (s *Store) initTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS transactions_cache (
			tx_hash TEXT PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			from_user TEXT NOT NULL,
			to_user TEXT,
			from_token TEXT,
			to_token TEXT,
			from_chain TEXT NOT NULL,
			to_chain TEXT NOT NULL,
			amount_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
			fee_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
			chain_id BIGINT,
			tx_display TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_txcache_created_at ON transactions_cache(created_at);
		CREATE INDEX IF NOT EXISTS idx_txcache_type_status ON transactions_cache(type, status);
		CREATE INDEX IF NOT EXISTS idx_txcache_from_chain ON transactions_cache(from_chain);

		CREATE TABLE IF NOT EXISTS sync_checkpoints (
			section TEXT PRIMARY KEY,
			last_sync TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE TABLE IF NOT EXISTS daily_stats (
			date DATE NOT NULL,
			chain_name TEXT NOT NULL,
			swap_transactions BIGINT NOT NULL DEFAULT 0,
			swap_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
			swap_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			send_transactions BIGINT NOT NULL DEFAULT 0,
			send_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
			cash_transactions BIGINT NOT NULL DEFAULT 0,
			cash_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
			cash_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			dapp_connections BIGINT NOT NULL DEFAULT 0,
			referrals BIGINT NOT NULL DEFAULT 0,
			agents_deployed BIGINT NOT NULL DEFAULT 0,
			active_users BIGINT NOT NULL DEFAULT 0,
			revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (date, chain_name)
		);

		CREATE TABLE IF NOT EXISTS weekly_stats (
			week_start_date DATE NOT NULL,
			metric TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL DEFAULT 0,
			quantity BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (week_start_date, metric)
		);
	`
	if err := s.Client.Exec(ctx, query); err != nil {
		return fmt.Errorf("init cache tables: %w", err)
	}
	return nil
}
