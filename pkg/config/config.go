package config

import (
	"time"

	"github.com/omniwallet/walletsync/pkg/utils"
)

// Config is built once at process start and passed by reference into each
// component. Nothing below reads the environment after construction.
type Config struct {
	// SourceURL is the DSN of the operational store (read-only here).
	SourceURL string
	// CacheURL is the DSN of the reporting cache store.
	CacheURL string

	// MetricsBaseURL is the base URL of the external metric provider used by
	// the rollup aggregator (referrals, deployed agents).
	MetricsBaseURL string
	MetricsAPIKey  string

	// BatchSize bounds the number of rows per upsert transaction.
	BatchSize int

	// TxOverlap is re-scanned behind the Transactions watermark so rows that
	// were PENDING at the last run are observed again after they settle.
	TxOverlap time.Duration
	// WeeklyOverlap plays the same role for the weekly rollup sections.
	WeeklyOverlap time.Duration

	// Schedule is the cron expression driving periodic runs in cron mode.
	Schedule string
}

func New() *Config {
	return &Config{
		SourceURL:      utils.Env("SOURCE_DATABASE_URL", "postgres://localhost:5432/wallet"),
		CacheURL:       utils.Env("CACHE_DATABASE_URL", "postgres://localhost:5432/wallet_cache"),
		MetricsBaseURL: utils.Env("METRICS_API_URL", ""),
		MetricsAPIKey:  utils.Env("METRICS_API_KEY", ""),
		BatchSize:      utils.EnvInt("SYNC_BATCH_SIZE", 100),
		TxOverlap:      utils.EnvDuration("SYNC_TX_OVERLAP", 2*time.Hour),
		WeeklyOverlap:  utils.EnvDuration("SYNC_WEEKLY_OVERLAP", 2*time.Hour),
		Schedule:       utils.Env("SYNC_SCHEDULE", "*/15 * * * *"),
	}
}
