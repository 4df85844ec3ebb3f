package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/screenlog/internal/metrics"
	"github.com/hitoshi/screenlog/internal/middleware"
	"github.com/hitoshi/screenlog/internal/model"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	Create(ctx context.Context, accountID, titleKey, body string) (*model.Review, error)
	ListByTitleKey(ctx context.Context, titleKey string) ([]model.ReviewWithAuthor, error)
	Delete(ctx context.Context, actorID, reviewID string) error
}

// ReviewHandler はレビュー関連のHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
	metrics metrics.MetricsCollector
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface, collector metrics.MetricsCollector) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		metrics: collector,
	}
}

// createReviewRequest はレビュー投稿のリクエストボディ。
type createReviewRequest struct {
	Body string `json:"body"`
}

// Create はレビューを投稿する。
// POST /api/titles/{titleKey}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	titleKey := chi.URLParam(r, "titleKey")

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディが不正です。",
			Category: "user_input",
			Action:   "入力内容を確認してください。",
		})
		return
	}

	review, err := h.service.Create(r.Context(), accountID, titleKey, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordReviewCreated()
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":        review.ID,
		"title_key": review.TitleKey,
		"body":      review.Body,
	})
}

// List は作品のレビュー一覧を返す。認証不要。
// GET /api/titles/{titleKey}/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	titleKey := chi.URLParam(r, "titleKey")

	reviews, err := h.service.ListByTitleKey(r.Context(), titleKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]reviewResponse, 0, len(reviews))
	for _, rev := range reviews {
		responses = append(responses, reviewResponse{
			ID:        rev.ID,
			Author:    rev.AuthorName,
			AuthorID:  rev.AccountID,
			Body:      rev.Body,
			CreatedAt: rev.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reviews": responses,
	})
}

// Delete はレビューを削除する。削除できるのは投稿者本人のみ。
// DELETE /api/reviews/{reviewID}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	reviewID := chi.URLParam(r, "reviewID")

	if err := h.service.Delete(r.Context(), actorID, reviewID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordReviewDeleted()
	w.WriteHeader(http.StatusNoContent)
}
