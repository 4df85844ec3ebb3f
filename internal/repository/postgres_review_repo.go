package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/screenlog/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, title_key, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		review.ID, review.AccountID, review.TitleKey, review.Body, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	review := &model.Review{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title_key, body, created_at
		 FROM reviews WHERE id = $1`,
		id,
	).Scan(&review.ID, &review.AccountID, &review.TitleKey, &review.Body, &review.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}

	return review, nil
}

// ListByTitleKey は作品のレビューを投稿者の表示名付きで投稿順に返す。
// usersへの参照は弱参照のためLEFT JOINで結合し、
// アカウントが存在しない場合はAuthorNameが空になる。
func (r *PostgresReviewRepo) ListByTitleKey(ctx context.Context, titleKey string) ([]model.ReviewWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.title_key, r.body, r.created_at,
		        COALESCE(u.username, '')
		 FROM reviews r
		 LEFT JOIN users u ON u.id = r.user_id
		 WHERE r.title_key = $1
		 ORDER BY r.created_at, r.id`,
		titleKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.ReviewWithAuthor
	for rows.Next() {
		var rv model.ReviewWithAuthor
		if err := rows.Scan(&rv.ID, &rv.AccountID, &rv.TitleKey, &rv.Body, &rv.CreatedAt,
			&rv.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return reviews, nil
}

// DeleteByID は指定IDのレビューを削除する。
// 削除対象が存在しなかった場合はfalseを返す。
func (r *PostgresReviewRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reviews WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
