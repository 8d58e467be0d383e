package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jerxmyy/workshop-musee-backend/internal/metrics"
	"github.com/Jerxmyy/workshop-musee-backend/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Metrics            *metrics.Collector
	MetricsHandler     http.Handler

	// サービス
	AccountService   AccountServiceInterface
	FavouriteService FavouriteServiceInterface

	Logger *slog.Logger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → SecurityHeaders → Metrics → Logging → CORS
//
// Bearer認証とレート制限は保護ルートグループにのみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	authHandler := NewAuthHandler(deps.AccountService, deps.Logger)
	favHandler := NewFavouritesHandler(deps.FavouriteService, deps.Logger)

	// --- 認証不要のルート ---

	r.Get("/", Root)
	r.Get("/health", Health)
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)

	// 公開ヘルスチェック。トークンがあればユーザーを解決するが、無くても通す
	r.With(middleware.NewOptionalAuthMiddleware(deps.TokenVerifier)).
		Get("/public/health", PublicHealth)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.Logger))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/logout", authHandler.Logout)
		r.Get("/profile", authHandler.Profile)

		r.Route("/favourites", func(r chi.Router) {
			// POST /favourites - お気に入り追加（追加専用レート制限を重ねる）
			r.With(deps.RateLimiter.FavouriteMiddleware()).Post("/", favHandler.Add)

			r.Get("/", favHandler.List)
			// 固定パスはパラメータ付きルートより先に定義する
			r.Get("/search", favHandler.Search)
			r.Get("/count", favHandler.Count)

			r.Route("/{musee_id}", func(r chi.Router) {
				r.Delete("/", favHandler.Remove)
				r.Get("/check", favHandler.Check)
			})
		})
	})

	// 未定義ルートは{error, path}形式の404で応答する
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorPath(w, http.StatusNotFound, "Endpoint non trouvé", r.URL.Path)
	})

	return r
}
