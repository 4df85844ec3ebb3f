package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/screenlog/internal/catalog"
	"github.com/hitoshi/screenlog/internal/flash"
	"github.com/hitoshi/screenlog/internal/metrics"
	"github.com/hitoshi/screenlog/internal/middleware"
	"github.com/hitoshi/screenlog/internal/model"
	"github.com/hitoshi/screenlog/internal/watchlist"
)

// --- モック定義 ---

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

type mockCatalogService struct {
	searchFn   func(ctx context.Context, query string) ([]catalog.SearchResult, error)
	getByKeyFn func(ctx context.Context, titleKey string) (*catalog.TitleDetail, error)
}

func (m *mockCatalogService) SearchByTitle(ctx context.Context, query string) ([]catalog.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return []catalog.SearchResult{}, nil
}

func (m *mockCatalogService) GetByKey(ctx context.Context, titleKey string) (*catalog.TitleDetail, error) {
	if m.getByKeyFn != nil {
		return m.getByKeyFn(ctx, titleKey)
	}
	return &catalog.TitleDetail{TitleKey: titleKey}, nil
}

type mockWatchlistService struct {
	addFn    func(ctx context.Context, actorID, ownerID, titleKey string) error
	removeFn func(ctx context.Context, actorID, ownerID, titleKey string) error
	listFn   func(ctx context.Context, actorID, ownerID string) ([]watchlist.Entry, error)
}

func (m *mockWatchlistService) Add(ctx context.Context, actorID, ownerID, titleKey string) error {
	if m.addFn != nil {
		return m.addFn(ctx, actorID, ownerID, titleKey)
	}
	return nil
}

func (m *mockWatchlistService) Remove(ctx context.Context, actorID, ownerID, titleKey string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, actorID, ownerID, titleKey)
	}
	return nil
}

func (m *mockWatchlistService) List(ctx context.Context, actorID, ownerID string) ([]watchlist.Entry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, actorID, ownerID)
	}
	return []watchlist.Entry{}, nil
}

type mockWatchlistChecker struct {
	containsFn func(ctx context.Context, accountID, titleKey string) (bool, error)
}

func (m *mockWatchlistChecker) Contains(ctx context.Context, accountID, titleKey string) (bool, error) {
	if m.containsFn != nil {
		return m.containsFn(ctx, accountID, titleKey)
	}
	return false, nil
}

type mockReviewService struct {
	createFn func(ctx context.Context, accountID, titleKey, body string) (*model.Review, error)
	listFn   func(ctx context.Context, titleKey string) ([]model.ReviewWithAuthor, error)
	deleteFn func(ctx context.Context, actorID, reviewID string) error
}

func (m *mockReviewService) Create(ctx context.Context, accountID, titleKey, body string) (*model.Review, error) {
	if m.createFn != nil {
		return m.createFn(ctx, accountID, titleKey, body)
	}
	return &model.Review{ID: "r1", AccountID: accountID, TitleKey: titleKey, Body: body}, nil
}

func (m *mockReviewService) ListByTitleKey(ctx context.Context, titleKey string) ([]model.ReviewWithAuthor, error) {
	if m.listFn != nil {
		return m.listFn(ctx, titleKey)
	}
	return []model.ReviewWithAuthor{}, nil
}

func (m *mockReviewService) Delete(ctx context.Context, actorID, reviewID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, actorID, reviewID)
	}
	return nil
}

type routerMocks struct {
	auth      *mockAuthService
	sessions  *mockSessionFinder
	catalog   *mockCatalogService
	watchlist *mockWatchlistService
	checker   *mockWatchlistChecker
	reviews   *mockReviewService
}

func newTestRouter(m *routerMocks) http.Handler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	collector := metrics.NewCollector(prometheus.NewRegistry())
	return NewRouter(&RouterDeps{
		Logger:            logger,
		SessionFinder:     m.sessions,
		CORSAllowedOrigin: "http://localhost:3000",
		CSRFConfig:        middleware.CSRFConfig{CookieSecure: false},
		AuthService:       m.auth,
		AuthConfig: AuthHandlerConfig{
			BaseURL:       "http://localhost:8080",
			SessionMaxAge: 604800,
		},
		CatalogService:   m.catalog,
		WatchlistService: m.watchlist,
		WatchlistChecker: m.checker,
		ReviewService:    m.reviews,
		ProfileService:   nil,
		FlashStore:       flash.NewStore(false),
		Metrics:          collector,
	})
}

func defaultRouterMocks() *routerMocks {
	return &routerMocks{
		auth: &mockAuthService{},
		sessions: &mockSessionFinder{
			findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				if id == "valid-session" {
					return &model.Session{
						ID:        id,
						AccountID: "user-1",
						ExpiresAt: time.Now().Add(time.Hour),
					}, nil
				}
				return nil, nil
			},
		},
		catalog:   &mockCatalogService{},
		watchlist: &mockWatchlistService{},
		checker:   &mockWatchlistChecker{},
		reviews:   &mockReviewService{},
	}
}

// withAuth はセッションとCSRFのCookie・ヘッダーを付与する。
func withAuth(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "test-csrf"})
	req.Header.Set("X-CSRF-Token", "test-csrf")
	return req
}

// --- テスト ---

func TestRouter_CatalogSearch_IsPublic(t *testing.T) {
	m := defaultRouterMocks()
	m.catalog.searchFn = func(ctx context.Context, query string) ([]catalog.SearchResult, error) {
		return []catalog.SearchResult{{TitleKey: "tt0001", Title: "Found Movie"}}, nil
	}
	router := newTestRouter(m)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/search?q=movie", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Found Movie") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRouter_TitleDetail_IncludesReviewsAndWatchlistState(t *testing.T) {
	m := defaultRouterMocks()
	m.reviews.listFn = func(ctx context.Context, titleKey string) ([]model.ReviewWithAuthor, error) {
		return []model.ReviewWithAuthor{
			{Review: model.Review{ID: "r1", Body: "great", CreatedAt: time.Now()}, AuthorName: "alice"},
		}, nil
	}
	m.auth.getCurrentAccountFn = func(ctx context.Context, sessionID string) (*model.Account, error) {
		if sessionID == "valid-session" {
			return &model.Account{ID: "user-1"}, nil
		}
		return nil, nil
	}
	m.checker.containsFn = func(ctx context.Context, accountID, titleKey string) (bool, error) {
		return accountID == "user-1" && titleKey == "tt0001", nil
	}
	router := newTestRouter(m)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/titles/tt0001", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Reviews     []reviewResponse `json:"reviews"`
		InWatchlist bool             `json:"in_watchlist"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Reviews) != 1 || body.Reviews[0].Author != "alice" {
		t.Errorf("reviews = %+v", body.Reviews)
	}
	if !body.InWatchlist {
		t.Error("in_watchlist should be true for a listed title")
	}
}

func TestRouter_TitleDetail_AnonymousUser_WatchlistFalse(t *testing.T) {
	m := defaultRouterMocks()
	router := newTestRouter(m)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/titles/tt0001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"in_watchlist":false`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRouter_Watchlist_RequiresSession(t *testing.T) {
	router := newTestRouter(defaultRouterMocks())

	req := httptest.NewRequest(http.MethodGet, "/api/users/user-1/watchlist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRouter_WatchlistAdd_OtherUser_Returns403(t *testing.T) {
	m := defaultRouterMocks()
	m.watchlist.addFn = func(ctx context.Context, actorID, ownerID, titleKey string) error {
		if actorID != ownerID {
			return model.NewForbiddenError()
		}
		return nil
	}
	router := newTestRouter(m)

	req := withAuth(httptest.NewRequest(http.MethodPost, "/api/users/someone-else/watchlist",
		strings.NewReader(`{"title_key":"tt0001"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRouter_WatchlistAdd_Owner_Succeeds(t *testing.T) {
	m := defaultRouterMocks()
	var addedKey string
	m.watchlist.addFn = func(ctx context.Context, actorID, ownerID, titleKey string) error {
		addedKey = titleKey
		return nil
	}
	router := newTestRouter(m)

	req := withAuth(httptest.NewRequest(http.MethodPost, "/api/users/user-1/watchlist",
		strings.NewReader(`{"title_key":"tt0001"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}
	if addedKey != "tt0001" {
		t.Errorf("added key = %q, want tt0001", addedKey)
	}
}

func TestRouter_WatchlistAdd_WithoutCSRF_Returns403(t *testing.T) {
	router := newTestRouter(defaultRouterMocks())

	req := httptest.NewRequest(http.MethodPost, "/api/users/user-1/watchlist",
		strings.NewReader(`{"title_key":"tt0001"}`))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRouter_ReviewCreate_EmptyBody_Returns400(t *testing.T) {
	m := defaultRouterMocks()
	m.reviews.createFn = func(ctx context.Context, accountID, titleKey, body string) (*model.Review, error) {
		return nil, model.NewEmptyReviewError()
	}
	router := newTestRouter(m)

	req := withAuth(httptest.NewRequest(http.MethodPost, "/api/titles/tt0001/reviews",
		strings.NewReader(`{"body":"   "}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRouter_ReviewDelete_NonAuthor_Returns403(t *testing.T) {
	m := defaultRouterMocks()
	m.reviews.deleteFn = func(ctx context.Context, actorID, reviewID string) error {
		return model.NewForbiddenError()
	}
	router := newTestRouter(m)

	req := withAuth(httptest.NewRequest(http.MethodDelete, "/api/reviews/r1", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRouter_ReviewList_IsPublic(t *testing.T) {
	m := defaultRouterMocks()
	m.reviews.listFn = func(ctx context.Context, titleKey string) ([]model.ReviewWithAuthor, error) {
		return []model.ReviewWithAuthor{
			{Review: model.Review{ID: "r1", Body: "public review", CreatedAt: time.Now()}, AuthorName: "bob"},
		}, nil
	}
	router := newTestRouter(m)

	req := httptest.NewRequest(http.MethodGet, "/api/titles/tt0001/reviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "public review") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRouter_CatalogUnavailable_Returns502(t *testing.T) {
	m := defaultRouterMocks()
	m.catalog.searchFn = func(ctx context.Context, query string) ([]catalog.SearchResult, error) {
		return nil, model.NewCatalogUnavailableError("down")
	}
	router := newTestRouter(m)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/search?q=x", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestRouter_FlashEndpoint_ReturnsAndClearsMessages(t *testing.T) {
	router := newTestRouter(defaultRouterMocks())

	req := httptest.NewRequest(http.MethodGet, "/api/flash", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"messages":[]`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRouter_Health_ReturnsOK(t *testing.T) {
	router := newTestRouter(defaultRouterMocks())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRouter_CSRFTokenEndpoint_IsPublic(t *testing.T) {
	router := newTestRouter(defaultRouterMocks())

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
