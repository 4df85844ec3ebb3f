package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/screenlog/internal/flash"
	"github.com/hitoshi/screenlog/internal/metrics"
	"github.com/hitoshi/screenlog/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	CatalogService   CatalogServiceInterface
	WatchlistService WatchlistServiceInterface
	WatchlistChecker WatchlistCheckerInterface
	ReviewService    ReviewServiceInterface
	ProfileService   ProfileServiceInterface

	// 共有インフラ
	FlashStore *flash.Store
	Metrics    metrics.MetricsCollector
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → (認証グループのみ Session → CSRF)
//
// 認証ルート（/auth/*）とカタログ閲覧はセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.FlashStore, deps.Metrics, deps.AuthConfig)
	catalogHandler := NewCatalogHandler(deps.CatalogService, deps.ReviewService, deps.WatchlistChecker, deps.AuthService)
	watchlistHandler := NewWatchlistHandler(deps.WatchlistService, deps.Metrics)
	reviewHandler := NewReviewHandler(deps.ReviewService, deps.Metrics)
	userHandler := NewUserHandler(deps.ProfileService)
	flashHandler := NewFlashHandler(deps.FlashStore)

	// --- 認証不要のルート ---

	// 運用エンドポイント
	r.Get("/health", NewHealthHandler(deps.HealthChecker).Check)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 認証フロー
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/{provider}/login", authHandler.FederatedLogin)
		r.Get("/{provider}/callback", authHandler.FederatedCallback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// カタログ閲覧（未ログインでも利用可能）
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/search", catalogHandler.Search)
		r.Get("/titles/{titleKey}", catalogHandler.GetTitle)
	})

	// レビュー閲覧（未ログインでも利用可能）
	r.Get("/api/titles/{titleKey}/reviews", reviewHandler.List)

	// CSRFトークン取得と一時通知
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)
	r.Get("/api/flash", flashHandler.Pop)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// ウォッチリスト
		r.Route("/api/users/{userID}", func(r chi.Router) {
			r.Get("/profile", userHandler.GetProfile)

			r.Route("/watchlist", func(r chi.Router) {
				r.Get("/", watchlistHandler.List)
				r.Post("/", watchlistHandler.Add)
				r.Delete("/{titleKey}", watchlistHandler.Remove)
			})
		})

		// レビュー投稿・削除
		r.Post("/api/titles/{titleKey}/reviews", reviewHandler.Create)
		r.Delete("/api/reviews/{reviewID}", reviewHandler.Delete)
	})

	return r
}
