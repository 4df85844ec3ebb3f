// Package review は作品レビューの投稿・一覧・削除機能を提供する。
package review

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/screenlog/internal/authz"
	"github.com/hitoshi/screenlog/internal/model"
	"github.com/hitoshi/screenlog/internal/repository"
)

// orphanAuthorName は投稿者アカウントが削除済みのレビューに表示する名前。
const orphanAuthorName = "退会済みユーザー"

// Service はレビューのビジネスロジックを提供する。
type Service struct {
	reviewRepo repository.ReviewRepository
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(reviewRepo repository.ReviewRepository, logger *slog.Logger) *Service {
	return &Service{
		reviewRepo: reviewRepo,
		logger:     logger,
	}
}

// Create はレビューを投稿する。ログイン必須。
// 本文は一切加工せず原文のまま保存する。空白のみの本文は拒否する。
func (s *Service) Create(ctx context.Context, accountID, titleKey, body string) (*model.Review, error) {
	if err := authz.RequireLogin(accountID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(body) == "" {
		return nil, model.NewEmptyReviewError()
	}

	review := &model.Review{
		ID:        uuid.New().String(),
		AccountID: accountID,
		TitleKey:  titleKey,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info("review created",
		slog.String("review_id", review.ID),
		slog.String("user_id", accountID),
		slog.String("title_key", titleKey),
	)

	return review, nil
}

// ListByTitleKey は作品のレビューを投稿順で返す。未ログインでも閲覧できる。
// 投稿者アカウントが削除済みのレビューは固定の表示名で返す。
func (s *Service) ListByTitleKey(ctx context.Context, titleKey string) ([]model.ReviewWithAuthor, error) {
	reviews, err := s.reviewRepo.ListByTitleKey(ctx, titleKey)
	if err != nil {
		return nil, err
	}

	for i := range reviews {
		if reviews[i].AuthorName == "" {
			reviews[i].AuthorName = orphanAuthorName
		}
	}

	return reviews, nil
}

// Delete はレビューを削除する。削除できるのは投稿者本人のみ。
// 存在しないレビューはReviewNotFoundエラーを返す。
func (s *Service) Delete(ctx context.Context, actorID, reviewID string) error {
	if err := authz.RequireLogin(actorID); err != nil {
		return err
	}

	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return model.NewReviewNotFoundError(reviewID)
	}

	if err := authz.RequireAuthor(actorID, review.AccountID); err != nil {
		return err
	}

	deleted, err := s.reviewRepo.DeleteByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if !deleted {
		// FindByIDとDeleteByIDの間で消えた場合
		return model.NewReviewNotFoundError(reviewID)
	}

	s.logger.Info("review deleted",
		slog.String("review_id", reviewID),
		slog.String("user_id", actorID),
	)
	return nil
}
