package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/omniwallet/walletsync/pkg/db/postgres"
	"github.com/omniwallet/walletsync/pkg/retry"
)

// checkpointEpoch is the origin watermark for sections that have never
// synced: the day the activity log started accumulating.
var checkpointEpoch = time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC)

// Watermark returns how far the section has progressed, defaulting to the
// fixed historical epoch when the section has never been synced.
func (s *Store) Watermark(ctx context.Context, section string) (time.Time, error) {
	var last time.Time
	err := s.Client.QueryRow(ctx,
		`SELECT last_sync FROM sync_checkpoints WHERE section = $1`, section,
	).Scan(&last)
	if postgres.IsNoRows(err) {
		return checkpointEpoch, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read checkpoint %s: %w", section, err)
	}
	return last.UTC(), nil
}

func writeCheckpoint(ctx context.Context, ex postgres.Executor, section string, ts time.Time) error {
	_, err := ex.Exec(ctx, `
		INSERT INTO sync_checkpoints (section, last_sync)
		VALUES ($1, $2)
		ON CONFLICT (section) DO UPDATE SET last_sync = EXCLUDED.last_sync
	`, section, ts.UTC())
	return err
}

// Advance upserts the section's watermark. Callers only move it forward;
// the overlap re-scan is applied on read, not by rewinding the stored value.
func (s *Store) Advance(ctx context.Context, section string, ts time.Time) error {
	err := retry.WithBackoff(ctx, s.writeRetry(), s.Logger, "advance_checkpoint", func() error {
		return s.Client.BeginFunc(ctx, func(tx pgx.Tx) error {
			return writeCheckpoint(ctx, tx, section, ts)
		})
	})
	if err != nil {
		return fmt.Errorf("advance checkpoint %s: %w", section, err)
	}
	return nil
}
