package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/screenlog/internal/metrics"
	"github.com/hitoshi/screenlog/internal/middleware"
	"github.com/hitoshi/screenlog/internal/model"
	"github.com/hitoshi/screenlog/internal/watchlist"
)

// WatchlistServiceInterface はウォッチリストハンドラーが必要とするサービスインターフェース。
type WatchlistServiceInterface interface {
	Add(ctx context.Context, actorID, ownerID, titleKey string) error
	Remove(ctx context.Context, actorID, ownerID, titleKey string) error
	List(ctx context.Context, actorID, ownerID string) ([]watchlist.Entry, error)
}

// WatchlistHandler はウォッチリスト関連のHTTPハンドラー。
// URLの{userID}とセッションのアカウントIDの照合はサービス層で行う。
type WatchlistHandler struct {
	service WatchlistServiceInterface
	metrics metrics.MetricsCollector
}

// NewWatchlistHandler はWatchlistHandlerを生成する。
func NewWatchlistHandler(service WatchlistServiceInterface, collector metrics.MetricsCollector) *WatchlistHandler {
	return &WatchlistHandler{
		service: service,
		metrics: collector,
	}
}

// addRequest はウォッチリスト追加のリクエストボディ。
type addRequest struct {
	TitleKey string `json:"title_key"`
}

// Add はタイトルをウォッチリストに追加する。
// POST /api/users/{userID}/watchlist
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	ownerID := chi.URLParam(r, "userID")

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TitleKey == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "title_keyは必須です。",
			Category: "user_input",
			Action:   "追加する作品のキーを指定してください。",
		})
		return
	}

	if err := h.service.Add(r.Context(), actorID, ownerID, req.TitleKey); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordWatchlistChange("add")
	w.WriteHeader(http.StatusNoContent)
}

// Remove はタイトルをウォッチリストから削除する。
// DELETE /api/users/{userID}/watchlist/{titleKey}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	ownerID := chi.URLParam(r, "userID")
	titleKey := chi.URLParam(r, "titleKey")

	if err := h.service.Remove(r.Context(), actorID, ownerID, titleKey); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordWatchlistChange("remove")
	w.WriteHeader(http.StatusNoContent)
}

// List はウォッチリストの全エントリをタイトル詳細付きで返す。
// GET /api/users/{userID}/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	ownerID := chi.URLParam(r, "userID")

	entries, err := h.service.List(r.Context(), actorID, ownerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
	})
}
