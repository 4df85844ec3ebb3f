package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresWatchlistRepo はPostgreSQLを使用したウォッチリストリポジトリ。
// (user_id, title_key)を主キーとする集合として実装し、
// 追加・削除は単一要素への集合操作のみで行う。
// リスト全体の読み出し・書き戻しを行わないため、複数デバイスからの
// 同時更新でも更新の取りこぼしが発生しない。
type PostgresWatchlistRepo struct {
	db *sql.DB
}

// NewPostgresWatchlistRepo はPostgresWatchlistRepoを生成する。
func NewPostgresWatchlistRepo(db *sql.DB) *PostgresWatchlistRepo {
	return &PostgresWatchlistRepo{db: db}
}

// Add は作品をウォッチリストに追加する。
// 既に存在する場合はON CONFLICT DO NOTHINGにより何もしない（冪等）。
func (r *PostgresWatchlistRepo) Add(ctx context.Context, accountID, titleKey string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO watchlist_entries (user_id, title_key, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id, title_key) DO NOTHING`,
		accountID, titleKey,
	)
	if err != nil {
		return fmt.Errorf("failed to add watchlist entry: %w", err)
	}
	return nil
}

// Remove は作品をウォッチリストから削除する。存在しない場合も成功する（冪等）。
func (r *PostgresWatchlistRepo) Remove(ctx context.Context, accountID, titleKey string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM watchlist_entries WHERE user_id = $1 AND title_key = $2`,
		accountID, titleKey,
	)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}
	return nil
}

// ListByAccountID はアカウントのウォッチリストの作品キーを追加順で返す。
func (r *PostgresWatchlistRepo) ListByAccountID(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT title_key FROM watchlist_entries
		 WHERE user_id = $1
		 ORDER BY created_at, title_key`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist entries: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchlist entries: %w", err)
	}

	return keys, nil
}

// Contains は作品がウォッチリストに含まれるかを返す。
func (r *PostgresWatchlistRepo) Contains(ctx context.Context, accountID, titleKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM watchlist_entries WHERE user_id = $1 AND title_key = $2
		 )`,
		accountID, titleKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist entry: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ WatchlistRepository = (*PostgresWatchlistRepo)(nil)
