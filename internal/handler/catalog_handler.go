package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/screenlog/internal/catalog"
	"github.com/hitoshi/screenlog/internal/model"
)

// CatalogServiceInterface はカタログハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	SearchByTitle(ctx context.Context, query string) ([]catalog.SearchResult, error)
	GetByKey(ctx context.Context, titleKey string) (*catalog.TitleDetail, error)
}

// ReviewListerInterface はタイトル詳細に添えるレビュー取得のインターフェース。
type ReviewListerInterface interface {
	ListByTitleKey(ctx context.Context, titleKey string) ([]model.ReviewWithAuthor, error)
}

// WatchlistCheckerInterface はタイトルのウォッチリスト登録状態確認のインターフェース。
type WatchlistCheckerInterface interface {
	Contains(ctx context.Context, accountID, titleKey string) (bool, error)
}

// CatalogHandler は映画カタログ関連のHTTPハンドラー。
// 検索と詳細は未ログインでも利用できる。
type CatalogHandler struct {
	catalog   CatalogServiceInterface
	reviews   ReviewListerInterface
	watchlist WatchlistCheckerInterface
	auth      AuthServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(
	catalogSvc CatalogServiceInterface,
	reviews ReviewListerInterface,
	watchlist WatchlistCheckerInterface,
	auth AuthServiceInterface,
) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalogSvc,
		reviews:   reviews,
		watchlist: watchlist,
		auth:      auth,
	}
}

// Search はタイトル名でカタログを検索する。
// GET /api/catalog/search?q=xxx
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "検索キーワードが空です。",
			Category: "user_input",
			Action:   "クエリパラメータ q を指定してください。",
		})
		return
	}

	results, err := h.catalog.SearchByTitle(r.Context(), query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// reviewResponse はタイトル詳細に含めるレビューのレスポンス形式。
type reviewResponse struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	AuthorID  string `json:"author_id,omitempty"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// GetTitle はタイトルの詳細をレビュー一覧付きで返す。
// ログイン済みの場合はウォッチリスト登録状態も含める。
// GET /api/catalog/titles/{titleKey}
func (h *CatalogHandler) GetTitle(w http.ResponseWriter, r *http.Request) {
	titleKey := chi.URLParam(r, "titleKey")

	detail, err := h.catalog.GetByKey(r.Context(), titleKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	reviews, err := h.reviews.ListByTitleKey(r.Context(), titleKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	reviewResponses := make([]reviewResponse, 0, len(reviews))
	for _, rev := range reviews {
		reviewResponses = append(reviewResponses, reviewResponse{
			ID:        rev.ID,
			Author:    rev.AuthorName,
			AuthorID:  rev.AccountID,
			Body:      rev.Body,
			CreatedAt: rev.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	// ログイン済みならウォッチリスト登録状態を含める（未ログインは常にfalse）
	inWatchlist := false
	if accountID := h.currentAccountID(r); accountID != "" {
		inWatchlist, err = h.watchlist.Contains(r.Context(), accountID, titleKey)
		if err != nil {
			handleServiceError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"title":        detail,
		"reviews":      reviewResponses,
		"in_watchlist": inWatchlist,
	})
}

// currentAccountID はセッションCookieからアカウントIDを解決する。
// 未ログイン・無効セッションは空文字を返す。
func (h *CatalogHandler) currentAccountID(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	account, err := h.auth.GetCurrentAccount(r.Context(), cookie.Value)
	if err != nil || account == nil {
		return ""
	}
	return account.ID
}
