package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/omniwallet/walletsync/pkg/db/postgres"
	"github.com/omniwallet/walletsync/pkg/model"
	"github.com/omniwallet/walletsync/pkg/retry"
)

const upsertTransactionSQL = `
	INSERT INTO transactions_cache (
		tx_hash, created_at, type, status, from_user, to_user,
		from_token, to_token, from_chain, to_chain,
		amount_usd, fee_usd, chain_id, tx_display
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (tx_hash) DO UPDATE SET
		created_at = EXCLUDED.created_at,
		type = EXCLUDED.type,
		status = EXCLUDED.status,
		from_user = EXCLUDED.from_user,
		to_user = EXCLUDED.to_user,
		from_token = EXCLUDED.from_token,
		to_token = EXCLUDED.to_token,
		from_chain = EXCLUDED.from_chain,
		to_chain = EXCLUDED.to_chain,
		amount_usd = EXCLUDED.amount_usd,
		fee_usd = EXCLUDED.fee_usd,
		chain_id = EXCLUDED.chain_id,
		tx_display = EXCLUDED.tx_display
`

// sendTransactionBatch queues one upsert per transaction against ex, which
// is the surrounding pgx.Tx during normal operation.
func sendTransactionBatch(ctx context.Context, ex postgres.Executor, batch []*model.CanonicalTransaction) error {
	b := &pgx.Batch{}
	for _, t := range batch {
		b.Queue(upsertTransactionSQL,
			t.TxHash, t.CreatedAt, t.Type, t.Status, t.FromUser, t.ToUser,
			t.FromToken, t.ToToken, t.FromChain, t.ToChain,
			t.AmountUSD, t.FeeUSD, t.ChainID, t.TxDisplay,
		)
	}
	return ex.SendBatch(ctx, b).Close()
}

// UpsertTransactions writes canonical transactions with last-write-wins
// conflict resolution keyed by tx_hash. Writes go out in batches, each inside
// its own transaction so a long window makes durable partial progress;
// deadlocks roll the batch back and retry. Returns the number written.
func (s *Store) UpsertTransactions(ctx context.Context, txs []*model.CanonicalTransaction) (int, error) {
	written := 0
	for start := 0; start < len(txs); start += s.BatchSize {
		end := start + s.BatchSize
		if end > len(txs) {
			end = len(txs)
		}
		batch := txs[start:end]

		err := retry.WithBackoff(ctx, s.writeRetry(), s.Logger, "upsert_transactions", func() error {
			return s.Client.BeginFunc(ctx, func(tx pgx.Tx) error {
				return sendTransactionBatch(ctx, tx, batch)
			})
		})
		if err != nil {
			return written, fmt.Errorf("upsert transactions batch: %w", err)
		}

		written += len(batch)
		s.Logger.Debug("transaction batch committed",
			zap.Int("batch_size", len(batch)),
			zap.Int("written", written))
	}
	return written, nil
}

// MaxCreatedAt returns the newest created_at in the cache, or zero time when
// the cache is empty.
func (s *Store) MaxCreatedAt(ctx context.Context) (time.Time, error) {
	var max *time.Time
	if err := s.Client.QueryRow(ctx, `SELECT MAX(created_at) FROM transactions_cache`).Scan(&max); err != nil {
		return time.Time{}, fmt.Errorf("max created_at: %w", err)
	}
	if max == nil {
		return time.Time{}, nil
	}
	return *max, nil
}

// ReclassifySuiFailures corrects a known bad pattern: SUI swaps that were
// recorded as failures but carry a real on-chain hash are provably successes.
// One-time data-correction sweep, idempotent, not part of per-row logic.
func (s *Store) ReclassifySuiFailures(ctx context.Context) (int64, error) {
	tag, err := s.Client.Pool.Exec(ctx, `
		UPDATE transactions_cache
		SET status = 'SUCCESS'
		WHERE from_chain = 'sui'
		  AND status = 'FAIL'
		  AND tx_hash IS NOT NULL
		  AND LENGTH(tx_hash) > 10
		  AND tx_hash NOT LIKE 'unknown-%'
	`)
	if err != nil {
		return 0, fmt.Errorf("reclassify sui failures: %w", err)
	}
	return tag.RowsAffected(), nil
}
