// Package source is the read side of the operational store: windowed scans
// over the activity log and identity resolution for display usernames.
// Nothing here ever writes to the operational store.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/omniwallet/walletsync/pkg/db/postgres"
	"github.com/omniwallet/walletsync/pkg/model"
)

type Store struct {
	Logger *zap.Logger
	Client *postgres.Client

	// Username lookups repeat heavily inside a window and across the
	// overlap re-scan; results are memoized and shared between runs,
	// including overlapping ones fired by an eager scheduler.
	usersByID   *xsync.Map[string, string]
	usersByAddr *xsync.Map[string, string]
}

func New(ctx context.Context, logger *zap.Logger, dsn string) (*Store, error) {
	client, err := postgres.New(ctx, logger, dsn, postgres.GetPoolConfigForComponent("source"))
	if err != nil {
		return nil, fmt.Errorf("connect source store: %w", err)
	}
	return &Store{
		Logger:      logger,
		Client:      &client,
		usersByID:   xsync.NewMap[string, string](),
		usersByAddr: xsync.NewMap[string, string](),
	}, nil
}

func (s *Store) Close() {
	s.Client.Close()
}

// CountActivities returns the number of activity rows inside the window.
func (s *Store) CountActivities(ctx context.Context, start, end time.Time) (int, error) {
	var count int
	err := s.Client.QueryRow(ctx, `
		SELECT COUNT(*) FROM "Activity"
		WHERE "createdAt" >= $1 AND "createdAt" < $2
	`, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return count, nil
}

// ListActivities returns one page of activity rows inside [start, end),
// ordered by creation time so the watermark can advance monotonically.
func (s *Store) ListActivities(ctx context.Context, start, end time.Time, limit, offset int) ([]*model.RawActivityRecord, error) {
	rows, err := s.Client.Query(ctx, `
		SELECT "createdAt", "userId", type, status, hash, transaction, "chainIds"
		FROM "Activity"
		WHERE "createdAt" >= $1 AND "createdAt" < $2
		ORDER BY "createdAt" ASC
		LIMIT $3 OFFSET $4
	`, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var records []*model.RawActivityRecord
	for rows.Next() {
		rec := &model.RawActivityRecord{}
		if err := rows.Scan(&rec.CreatedAt, &rec.UserID, &rec.Type, &rec.Status, &rec.Hash, &rec.Payload, &rec.ChainIDs); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return records, nil
}

// UsernameByUserID resolves a user id to its username, falling back to the
// raw id when the user is unknown or the store is unreachable. Identity
// resolution never drops a row.
func (s *Store) UsernameByUserID(ctx context.Context, userID string) string {
	if userID == "" {
		return userID
	}
	if cached, ok := s.usersByID.Load(userID); ok {
		return cached
	}

	var username *string
	err := s.Client.QueryRow(ctx,
		`SELECT username FROM "User" WHERE "userId" = $1 LIMIT 1`, userID,
	).Scan(&username)
	if err != nil || username == nil || *username == "" {
		if err != nil && !postgres.IsNoRows(err) {
			s.Logger.Warn("username lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return userID
	}

	s.usersByID.Store(userID, *username)
	return *username
}

// UsernameByAddress resolves a wallet address to the owning username through
// the wallet-account join, falling back to the address itself.
func (s *Store) UsernameByAddress(ctx context.Context, address string) string {
	if address == "" {
		return address
	}
	if cached, ok := s.usersByAddr.Load(address); ok {
		return cached
	}

	var username *string
	err := s.Client.QueryRow(ctx, `
		SELECT u.username
		FROM "Wallet" w
		JOIN "WalletAccount" wa ON w."walletAccountId" = wa."id"
		JOIN "User" u ON wa."userId" = u."userId"
		WHERE LOWER(w.address) = LOWER($1)
		LIMIT 1
	`, address).Scan(&username)
	if err != nil || username == nil || *username == "" {
		if err != nil && !postgres.IsNoRows(err) {
			s.Logger.Warn("address lookup failed", zap.String("address", address), zap.Error(err))
		}
		return address
	}

	s.usersByAddr.Store(address, *username)
	return *username
}
