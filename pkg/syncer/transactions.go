package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omniwallet/walletsync/pkg/model"
	"github.com/omniwallet/walletsync/pkg/transform"
)

// SyncTransactions scans raw activity from just behind the Transactions
// watermark up to now, normalizes each record, and upserts the results in
// batches. The overlap behind the watermark re-reads rows that were PENDING
// on the previous run so their settled status wins via the upsert.
//
// A failing batch is logged and skipped; the remaining pages still run. Only
// a scan failure aborts without advancing the watermark.
func (s *Syncer) SyncTransactions(ctx context.Context) error {
	wm, err := s.cache.Watermark(ctx, model.SectionTransactions)
	if err != nil {
		return fmt.Errorf("read transactions watermark: %w", err)
	}

	start := wm.Add(-s.cfg.TxOverlap)
	end := time.Now().UTC()

	total, err := s.source.CountActivities(ctx, start, end)
	if err != nil {
		return fmt.Errorf("count activities: %w", err)
	}
	s.logger.Info("syncing transactions",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("activities", total))

	var batchErrs []error
	written := 0
	skipped := 0
	for offset := 0; offset < total; offset += s.cfg.BatchSize {
		records, err := s.source.ListActivities(ctx, start, end, s.cfg.BatchSize, offset)
		if err != nil {
			return fmt.Errorf("list activities at offset %d: %w", offset, err)
		}
		if len(records) == 0 {
			break
		}

		txs := make([]*model.CanonicalTransaction, 0, len(records))
		for _, rec := range records {
			tx, err := s.transform.Transform(ctx, rec)
			if err != nil {
				if transform.IsReject(err) {
					skipped++
					continue
				}
				s.logger.Warn("failed to normalize activity",
					zap.Time("created_at", rec.CreatedAt),
					zap.String("type", rec.Type),
					zap.Error(err))
				skipped++
				continue
			}
			txs = append(txs, tx)
		}

		n, err := s.cache.UpsertTransactions(ctx, txs)
		if err != nil {
			s.logger.Error("failed to upsert transaction batch",
				zap.Int("offset", offset),
				zap.Error(err))
			batchErrs = append(batchErrs, err)
			continue
		}
		written += n
	}

	if swept, err := s.cache.ReclassifySuiFailures(ctx); err != nil {
		s.logger.Warn("sui failure sweep failed", zap.Error(err))
	} else if swept > 0 {
		s.logger.Info("reclassified sui failures as success", zap.Int64("rows", swept))
	}

	// Advance to the newest row actually in the cache so a partial run only
	// re-reads what it missed, falling back to the scan end when empty.
	next, err := s.cache.MaxCreatedAt(ctx)
	if err != nil || next.IsZero() {
		next = end
	}
	if err := s.cache.Advance(ctx, model.SectionTransactions, next); err != nil {
		return fmt.Errorf("advance transactions watermark: %w", err)
	}

	s.logger.Info("transactions synced",
		zap.Int("written", written),
		zap.Int("skipped", skipped),
		zap.Time("watermark", next))
	return errors.Join(batchErrs...)
}
