// Package watchlist はユーザーごとの「見たい映画リスト」の管理機能を提供する。
package watchlist

import (
	"context"
	"log/slog"

	"github.com/hitoshi/screenlog/internal/authz"
	"github.com/hitoshi/screenlog/internal/catalog"
	"github.com/hitoshi/screenlog/internal/repository"
)

// TitleLookup はウォッチリスト表示時のタイトル詳細取得のインターフェース。
type TitleLookup interface {
	GetByKey(ctx context.Context, titleKey string) (*catalog.TitleDetail, error)
}

// Service はウォッチリストのビジネスロジックを提供する。
// すべての変更操作は所有者本人にのみ許可される。
type Service struct {
	watchlistRepo repository.WatchlistRepository
	titles        TitleLookup
	logger        *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	watchlistRepo repository.WatchlistRepository,
	titles TitleLookup,
	logger *slog.Logger,
) *Service {
	return &Service{
		watchlistRepo: watchlistRepo,
		titles:        titles,
		logger:        logger,
	}
}

// Entry はウォッチリスト一覧の1件分。
// カタログから詳細を取得できなかった場合、Detailはnilになり
// TitleKeyのみで返される。
type Entry struct {
	TitleKey string               `json:"title_key"`
	Detail   *catalog.TitleDetail `json:"detail,omitempty"`
}

// Add はタイトルをウォッチリストに追加する。
// 既に登録済みのタイトルを追加しても重複せず、エラーにもならない（集合のセマンティクス）。
func (s *Service) Add(ctx context.Context, actorID, ownerID, titleKey string) error {
	if err := authz.RequireSelf(actorID, ownerID); err != nil {
		return err
	}

	if err := s.watchlistRepo.Add(ctx, ownerID, titleKey); err != nil {
		return err
	}

	s.logger.Info("title added to watchlist",
		slog.String("user_id", ownerID),
		slog.String("title_key", titleKey),
	)
	return nil
}

// Remove はタイトルをウォッチリストから削除する。
// リストにないタイトルの削除も成功として扱う（冪等）。
func (s *Service) Remove(ctx context.Context, actorID, ownerID, titleKey string) error {
	if err := authz.RequireSelf(actorID, ownerID); err != nil {
		return err
	}

	if err := s.watchlistRepo.Remove(ctx, ownerID, titleKey); err != nil {
		return err
	}

	s.logger.Info("title removed from watchlist",
		slog.String("user_id", ownerID),
		slog.String("title_key", titleKey),
	)
	return nil
}

// List はウォッチリストの全エントリをタイトル詳細付きで返す。
// 詳細の取得はベストエフォートであり、1件の取得失敗が一覧全体を
// 失敗させることはない。取得できなかったエントリはキーのみで返す。
func (s *Service) List(ctx context.Context, actorID, ownerID string) ([]Entry, error) {
	if err := authz.RequireSelf(actorID, ownerID); err != nil {
		return nil, err
	}

	keys, err := s.watchlistRepo.ListByAccountID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entry := Entry{TitleKey: key}
		detail, err := s.titles.GetByKey(ctx, key)
		if err != nil {
			s.logger.Warn("failed to enrich watchlist entry",
				slog.String("title_key", key),
				slog.String("error", err.Error()),
			)
		} else {
			entry.Detail = detail
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Contains はタイトルがウォッチリストに含まれるかを返す。
// タイトル詳細画面の「登録済み」表示に使う。
func (s *Service) Contains(ctx context.Context, accountID, titleKey string) (bool, error) {
	if accountID == "" {
		return false, nil
	}
	return s.watchlistRepo.Contains(ctx, accountID, titleKey)
}
